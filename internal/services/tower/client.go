// Package tower fetches tournament statistics from the results site.
package tower

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/towerbot/internal/stats"
	"github.com/towerbot/internal/storage"
)

const cacheTTL = 15 * time.Minute

// Client scrapes player tournament stats, with a Redis cache in front.
type Client struct {
	httpClient *http.Client
	redis      *storage.RedisClient
	baseURL    string
	cacheKey   string
	log        zerolog.Logger
}

// NewClient creates a new results-site client.
func NewClient(redis *storage.RedisClient, baseURL, cacheKey string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		redis:      redis,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cacheKey:   cacheKey,
		log:        log,
	}
}

// GetPlayerStats returns the per-league aggregates for one player ID.
func (c *Client) GetPlayerStats(playerID string) (*PlayerStats, error) {
	key := fmt.Sprintf("%s:player:%s", c.cacheKey, playerID)

	// 1. Check cache
	if val, err := c.redis.Get(key); err == nil && val != "" {
		var cached PlayerStats
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return &cached, nil
		}
	}

	// 2. Scrape the player page
	url := fmt.Sprintf("%s/player/%s", c.baseURL, playerID)
	c.log.Debug().Str("url", url).Msg("scraping player stats")

	result, err := c.scrapePlayerStats(url, playerID)
	if err != nil {
		return nil, err
	}

	// 3. Save to cache
	if data, err := json.Marshal(result); err == nil {
		c.redis.SetEx(key, string(data), cacheTTL)
	}

	return result, nil
}

// scrapePlayerStats parses the per-league summary table on a player
// page. Expected columns: league, best wave, position at best wave,
// best position, patch max wave, tournament count, average wave,
// average position, latest wave, latest position, latest date.
func (c *Client) scrapePlayerStats(url, playerID string) (*PlayerStats, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "TowerBot/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	result := &PlayerStats{PlayerID: playerID}

	doc.Find("table.league-summary tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 11 {
			return
		}

		record := stats.LeagueRecord{
			League:             cellText(cells, 0),
			BestWave:           cellInt(cells, 1),
			PositionAtBestWave: cellInt(cells, 2),
			BestPosition:       cellInt(cells, 3),
			MaxWave:            cellInt(cells, 4),
			TotalTournaments:   cellInt(cells, 5),
			AvgWave:            cellFloat(cells, 6),
			AvgPosition:        cellFloat(cells, 7),
			LatestWave:         cellInt(cells, 8),
			LatestPosition:     cellInt(cells, 9),
		}
		if date, err := time.Parse("2006-01-02", cellText(cells, 10)); err == nil {
			record.LatestDate = date
		}
		if record.League == "" {
			return
		}
		result.Leagues = append(result.Leagues, record)
	})

	if len(result.Leagues) == 0 {
		return nil, fmt.Errorf("no tournament data found for player %s", playerID)
	}
	return result, nil
}

// InvalidatePlayer drops the cached stats for one player ID.
func (c *Client) InvalidatePlayer(playerID string) {
	c.redis.Delete(fmt.Sprintf("%s:player:%s", c.cacheKey, playerID))
}

func cellText(cells *goquery.Selection, idx int) string {
	return strings.TrimSpace(cells.Eq(idx).Text())
}

func cellInt(cells *goquery.Selection, idx int) int {
	text := strings.ReplaceAll(cellText(cells, idx), ",", "")
	if text == "" || text == "-" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

func cellFloat(cells *goquery.Selection, idx int) float64 {
	text := strings.ReplaceAll(cellText(cells, idx), ",", "")
	if text == "" || text == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}
