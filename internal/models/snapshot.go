package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Snapshot is one day's reduced statistical summary of sold marketplace
// listings for a category. Stored in the sales_data table, at most one row
// per calendar date, immutable once written.
type Snapshot struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Date          string         `json:"date" gorm:"uniqueIndex;not null"` // YYYY-MM-DD
	Category      string         `json:"category"`
	TotalSales    int            `json:"total_sales"`
	AvgPrice      float64        `json:"avg_price"`
	MedianPrice   float64        `json:"median_price"`
	MinPrice      float64        `json:"min_price"`
	MaxPrice      float64        `json:"max_price"`
	TopKeywords   KeywordCounts  `json:"top_keywords" gorm:"type:text"`
	TopCharacters CharacterStats `json:"top_characters" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName keeps the table the reporting jobs already query.
func (Snapshot) TableName() string {
	return "sales_data"
}

// KeywordCount is one keyword and its frequency within a snapshot.
type KeywordCount struct {
	Word  string
	Count int
}

// KeywordCounts holds the top keywords ranked by descending count. The slice
// preserves rank order while serializing to the JSON object shape the
// sales_data table uses ({"word": count, ...}).
type KeywordCounts []KeywordCount

// Count returns the stored count for word, or 0 when the word is absent.
func (k KeywordCounts) Count(word string) int {
	for _, kc := range k {
		if kc.Word == word {
			return kc.Count
		}
	}
	return 0
}

// MarshalJSON writes an object with keys in rank order.
func (k KeywordCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kc := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		word, err := json.Marshal(kc.Word)
		if err != nil {
			return nil, err
		}
		buf.Write(word)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(kc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads object keys in document order so the stored rank
// survives a round trip.
func (k *KeywordCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("top_keywords: expected JSON object, got %v", tok)
	}

	out := KeywordCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		word, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("top_keywords: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return err
		}
		out = append(out, KeywordCount{Word: word, Count: count})
	}
	*k = out
	return nil
}

// Value implements driver.Valuer so gorm stores the JSON text.
func (k KeywordCounts) Value() (driver.Value, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (k *KeywordCounts) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*k = nil
		return nil
	case []byte:
		return json.Unmarshal(v, k)
	case string:
		return json.Unmarshal([]byte(v), k)
	default:
		return fmt.Errorf("top_keywords: unsupported column type %T", value)
	}
}

// CharacterStat is the per-entity price distribution within one snapshot.
// Entities with no matching listings keep a zero record so every watchlist
// name appears in every snapshot.
type CharacterStat struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
}

// CharacterStats maps a watchlist entity name to its stat.
type CharacterStats map[string]CharacterStat

// Value implements driver.Valuer so gorm stores the JSON text.
func (c CharacterStats) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *CharacterStats) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("top_characters: unsupported column type %T", value)
	}
}
