package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/dustin/go-humanize"

	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
)

// decodeWarnings keeps a corrupt key polled every tick from flooding the log.
var decodeWarnings = logx.NewThrottle(time.Minute)

// GetJSON decodes the value at key into dst. It reports false when the key is
// absent, unreadable, or holds a payload that does not decode; in the last case
// dst is left untouched and the failure is only logged and counted.
func GetJSON(ctx context.Context, s Store, key string, dst any) bool {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		logx.Error(err, "Store read failed, treating value as absent", "key", key)
		return false
	}
	if !ok {
		return false
	}

	return DecodeJSON(key, raw, dst)
}

// DecodeJSON decodes raw, read from key, into dst. A malformed payload leaves dst
// untouched, is logged and counted, and reports false.
func DecodeJSON(key string, raw []byte, dst any) bool {
	if err := decodeInto(raw, dst); err != nil {
		metrics.DecodeFailures.WithLabelValues(key).Inc()
		decodeWarnings.Warn("Malformed stored value, treating as absent",
			"key", key,
			"size", humanize.Bytes(uint64(len(raw))),
			"error", err.Error(),
		)
		return false
	}

	return true
}

// decodeInto unmarshals into a scratch value of dst's type and copies it over
// only on success, so a failed decode never leaves dst half-populated.
func decodeInto(raw []byte, dst any) error {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", dst)
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return fmt.Errorf("null payload")
	}

	scratch := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, scratch.Interface()); err != nil {
		return err
	}

	target.Elem().Set(scratch.Elem())
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
