package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// extractRecordID converts a SurrealDB record ID into "table:id" form
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// {"tb": "table", "id": "xxx"} format
		if tb, ok := v["tb"].(string); ok {
			if id, ok := v["id"].(string); ok {
				return tb + ":" + id
			}
		}
	}

	// Fall back to a JSON round trip
	if data, err := json.Marshal(id); err == nil {
		var recordID models.RecordID
		if err := json.Unmarshal(data, &recordID); err == nil && recordID.Table != "" {
			return fmt.Sprintf("%s:%v", recordID.Table, recordID.ID)
		}
	}
	return ""
}

// extractQueryResults returns the records of the first statement
func extractQueryResults(result []interface{}) []interface{} {
	if len(result) == 0 {
		return nil
	}
	if first, ok := result[0].(map[string]interface{}); ok {
		if _, wrapped := first["status"]; wrapped {
			records, _ := first["result"].([]interface{})
			return records
		}
	}
	return result
}

// firstRecord returns the first record of the first statement
func firstRecord(result []interface{}) (map[string]interface{}, bool) {
	records := extractQueryResults(result)
	if len(records) == 0 {
		return nil, false
	}
	data, ok := records[0].(map[string]interface{})
	return data, ok
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getTimeValue is getTime with a zero value for missing fields
func getTimeValue(m map[string]interface{}, key string) time.Time {
	if t := getTime(m, key); t != nil {
		return *t
	}
	return time.Time{}
}

// optionalString converts an empty string to nil so queries can map it
// to NONE
func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// formatTime renders a time for a <datetime> cast
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
