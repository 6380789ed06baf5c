package models

import "time"

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// ORDERS ////////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Order is a single record from the order log. Only Date and Time take part
// in the weekly summary; every other column is carried in Extra.
type Order struct {
	Date   string   `json:"date"` // YYYY-MM-DD
	Time   string   `json:"time"` // HH:MM:SS
	Extra  []string `json:"extra,omitempty"`
	Source string   `json:"source,omitempty"`
	Line   int      `json:"line,omitempty"` // 1-based line or row in Source
}

// OrderBatch is the full set of orders loaded for one run.
type OrderBatch struct {
	RunID       string    `json:"run_id"`
	Sources     []string  `json:"sources"`
	Orders      []Order   `json:"orders"`
	RecordCount int       `json:"record_count"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// NewOrderBatch wraps orders loaded from the given sources.
func NewOrderBatch(runID string, sources []string, orders []Order) OrderBatch {
	return OrderBatch{
		RunID:       runID,
		Sources:     sources,
		Orders:      orders,
		RecordCount: len(orders),
		LoadedAt:    time.Now().UTC(),
	}
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// PARQUET ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// ParquetOrder is the on-disk layout of an order log stored as Parquet.
type ParquetOrder struct {
	Date string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Time string `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8"`
	Item string `parquet:"name=item, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetMatrixCell is one exported cell of the weekly order matrix.
type ParquetMatrixCell struct {
	RunID       string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Day         string `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8"`
	DayIndex    int32  `parquet:"name=day_index, type=INT32"`
	Interval    int32  `parquet:"name=interval, type=INT32"`
	Label       string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartMinute int32  `parquet:"name=start_minute, type=INT32"`
	Length      int32  `parquet:"name=interval_length, type=INT32"`
	Count       int64  `parquet:"name=count, type=INT64"`
}
