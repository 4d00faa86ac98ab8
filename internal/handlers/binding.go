package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// BindNestedOrFlat attempts to bind the request body to obj.
// It first checks if the body contains a nested object with the given key
// (e.g. {"payment": {...}}); if so, that nested object is bound. Otherwise
// the entire body is bound flat. Older frontend builds send the nested shape.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	// Restore body for future binding or subsequent reads
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		if val, ok := nestedMap[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}

	return json.Unmarshal(bodyBytes, obj)
}
