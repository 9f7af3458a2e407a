package callbackurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type tunnelList struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// discoverTunnel asks the local tunnel manager for its public URL, preferring https.
func (r *Resolver) discoverTunnel(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, tunnelAPITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.TunnelAPIURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tunnel api status=%d", resp.StatusCode)
	}

	var list tunnelList
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&list); err != nil {
		return "", err
	}

	fallback := ""
	for _, t := range list.Tunnels {
		u := strings.TrimSpace(t.PublicURL)
		if u == "" {
			continue
		}
		if t.Proto == "https" || strings.HasPrefix(u, "https://") {
			return u, nil
		}
		if fallback == "" {
			fallback = u
		}
	}
	return fallback, nil
}
