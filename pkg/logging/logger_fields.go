package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Screening field helpers

func Component(name string) Field {
	return String("component", name)
}

func Network(name string) Field {
	return String("network", name)
}

func Order(k int) Field {
	return Int("order", k)
}

// Contingency records the edge indices of one removal set
func Contingency(edges []int) Field {
	cp := make([]int, len(edges))
	copy(cp, edges)
	return Any("contingency", cp)
}

func Metric(name string) Field {
	return String("metric", name)
}

func Workers(n int) Field {
	return Int("workers", n)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
