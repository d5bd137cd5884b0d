package apiclient

import (
	"context"
	"net/http"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

// BuiltinCatalog is served when the catalog endpoint is unavailable.
var BuiltinCatalog = core.SeedCatalog

// Catalog fetches the furniture catalog. When the endpoint is missing or
// unreachable it returns a copy of BuiltinCatalog and marks the client as
// degraded. Authentication and validation failures are returned as is.
func (c *Client) Catalog(ctx context.Context) ([]core.Furniture, error) {
	var items []core.Furniture
	err := c.do(ctx, http.MethodGet, "/furniture/all", nil, &items, true)
	switch core.CodeOf(err) {
	case core.CodeUnknown:
		if err == nil {
			c.degraded.Store(false)
			return items, nil
		}
	case core.CodeNotFound, core.CodeNetwork:
		logrus.WithError(err).Warn("Furniture catalog unavailable, using built-in catalog")
		c.degraded.Store(true)
		out := make([]core.Furniture, len(BuiltinCatalog))
		copy(out, BuiltinCatalog)
		return out, nil
	}
	return nil, err
}

// Degraded reports whether the last catalog fetch fell back to the
// built-in catalog.
func (c *Client) Degraded() bool {
	return c.degraded.Load()
}
