package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/pkg/config"
)

// DataSourceHeader tells clients which store answered the request.
const DataSourceHeader = "X-Data-Source"

// DataSource labels responses served from the in-memory store so clients can
// tell demo data from real records.
func DataSource(storage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage == config.StorageMemory {
			c.Header(DataSourceHeader, "Memory-Mock")
		}
		c.Next()
	}
}
