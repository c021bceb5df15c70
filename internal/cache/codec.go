package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"StockRanker/internal/model"
)

// Codec encodes the cached series to and from bytes.
type Codec interface {
	Name() string
	Marshal(series []model.StockSeries) ([]byte, error)
	Unmarshal(data []byte) ([]model.StockSeries, error)
}

// CodecFor returns the codec registered under name. The empty name is JSON.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown cache format %q", name)
	}
}

// JSONCodec writes [{"name", "symbol", "data": [[date, close], ...]}, ...].
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(series []model.StockSeries) ([]byte, error) {
	return json.Marshal(series)
}

func (JSONCodec) Unmarshal(data []byte) ([]model.StockSeries, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if err := checkEntries(entries, func(v json.RawMessage) bool {
		return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
	}); err != nil {
		return nil, err
	}
	var series []model.StockSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// MsgpackCodec is a compact binary form of the same structure.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Marshal(series []model.StockSeries) ([]byte, error) {
	return msgpack.Marshal(series)
}

func (MsgpackCodec) Unmarshal(data []byte) ([]model.StockSeries, error) {
	var entries []map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if err := checkEntries(entries, isMsgpackNil); err != nil {
		return nil, err
	}
	// The array form of a point decodes [] and nil to a zero point, so pairs
	// are checked before the typed decode.
	for i, e := range entries {
		var pairs [][]msgpack.RawMessage
		if err := msgpack.Unmarshal(e["data"], &pairs); err != nil {
			return nil, fmt.Errorf("series %d data: %w", i, err)
		}
		for j, pair := range pairs {
			if len(pair) != 2 || isMsgpackNil(pair[0]) || isMsgpackNil(pair[1]) {
				return nil, fmt.Errorf("series %d point %d: want [date, close]", i, j)
			}
		}
	}

	var series []model.StockSeries
	if err := msgpack.Unmarshal(data, &series); err != nil {
		return nil, err
	}
	return series, nil
}

var seriesFields = []string{"name", "symbol", "data"}

// checkEntries requires a non-null list whose entries all carry every series
// field with a non-null value.
func checkEntries[R ~[]byte](entries []map[string]R, isNull func(R) bool) error {
	if entries == nil {
		return errors.New("series list is null")
	}
	for i, e := range entries {
		if e == nil {
			return fmt.Errorf("series %d is null", i)
		}
		for _, field := range seriesFields {
			v, ok := e[field]
			if !ok {
				return fmt.Errorf("series %d: missing %q", i, field)
			}
			if isNull(v) {
				return fmt.Errorf("series %d: %q is null", i, field)
			}
		}
	}
	return nil
}

func isMsgpackNil(v msgpack.RawMessage) bool {
	return len(v) == 0 || (len(v) == 1 && v[0] == 0xc0)
}
