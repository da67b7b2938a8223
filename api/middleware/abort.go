package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/brandscrape/models"
)

// abortWithError stops the chain with the JSON API's error envelope.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ScrapeResponse{
		Success: false,
		Records: []models.ScrapedRecord{},
		Pages:   []models.PageReport{},
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
