package kie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/patrickmn/go-cache"
)

const creditsCacheKey = "credits"

// Credits returns the remaining account balance. Successful lookups are cached
// for the configured TTL; failures are not.
func (c *Client) Credits(ctx context.Context) (float64, error) {
	if v, ok := c.credits.Get(creditsCacheKey); ok {
		c.metrics.IncCreditsCache("hit")
		return v.(float64), nil
	}
	c.metrics.IncCreditsCache("miss")

	body, err := c.get(ctx, "/chat/credit")
	if err != nil {
		return 0, fmt.Errorf("kie: credits: %w", err)
	}
	var env struct {
		Code int      `json:"code"`
		Msg  string   `json:"msg"`
		Data *float64 `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, fmt.Errorf("kie: credits: decode: %w", err)
	}
	if env.Code != http.StatusOK || env.Data == nil {
		return 0, fmt.Errorf("kie: credits: code %d: %s", env.Code, env.Msg)
	}
	c.credits.Set(creditsCacheKey, *env.Data, cache.DefaultExpiration)
	return *env.Data, nil
}
