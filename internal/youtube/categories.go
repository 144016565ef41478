package youtube

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// UnknownCategory is returned for category IDs nobody recognises
const UnknownCategory = "Unknown Category"

// fallbackCategories is used when the category list cannot be fetched
var fallbackCategories = map[string]string{
	"1":  "Film & Animation",
	"2":  "Autos & Vehicles",
	"10": "Music",
	"15": "Pets & Animals",
	"17": "Sports",
	"19": "Travel & Events",
	"20": "Gaming",
	"22": "People & Blogs",
	"23": "Comedy",
	"24": "Entertainment",
	"25": "News & Politics",
	"26": "Howto & Style",
	"27": "Education",
	"28": "Science & Technology",
	"29": "Nonprofits & Activism",
}

// GetCategories returns the category ID to name table for region
func (c *Client) GetCategories(ctx context.Context, token, region string) (map[string]string, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.VideoCategories.List([]string{"snippet"}).
		RegionCode(region).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	categories := make(map[string]string, len(resp.Items))
	for _, cat := range resp.Items {
		if cat == nil || cat.Snippet == nil {
			continue
		}
		categories[cat.Id] = cat.Snippet.Title
	}
	return categories, nil
}

// CategoryName resolves a category ID for the client's region. The table is
// loaded once per region; a failed load pins the static fallback. Never fails.
func (c *Client) CategoryName(ctx context.Context, token, categoryID string) string {
	if categoryID == "" {
		return UnknownCategory
	}
	if name, ok := c.categoryTable(ctx, token)[categoryID]; ok {
		return name
	}
	if name, ok := fallbackCategories[categoryID]; ok {
		return name
	}
	return UnknownCategory
}

func (c *Client) categoryTable(ctx context.Context, token string) map[string]string {
	region := c.opts.Region
	if cached, ok := c.categories.Get(region); ok {
		return cached.(map[string]string)
	}

	c.categoryMu.Lock()
	defer c.categoryMu.Unlock()

	if cached, ok := c.categories.Get(region); ok {
		return cached.(map[string]string)
	}

	table, err := c.GetCategories(ctx, token, region)
	if err != nil || len(table) == 0 {
		c.logger.Warn("category lookup failed, using fallback table", "region", region, "error", err)
		table = fallbackCategories
	}
	c.categories.Set(region, table, gocache.NoExpiration)
	return table
}
