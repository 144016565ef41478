package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// SplitSettingLine splits a typed line into key=value arguments. Words
// without "=" belong to the previous value, so keywords=go talks stays one
// argument.
func SplitSettingLine(line string) []string {
	var args []string
	for _, word := range strings.Fields(line) {
		if strings.Contains(word, "=") || len(args) == 0 {
			args = append(args, word)
			continue
		}
		args[len(args)-1] += " " + word
	}
	return args
}

// ParseSettingArgs turns key=value pairs into partial settings.
//
// Keys: views.min, views.max, likes.min, likes.max, comments.min,
// comments.max, duration.min, duration.max (seconds or a Go duration such
// as 10m), upload (all|week|month|year), channels and categories
// (comma separated, empty clears), keywords, sort, direction (asc|desc).
// A max of "none" removes the upper bound.
func ParseSettingArgs(args []string) (domain.PartialSettings, error) {
	var p domain.PartialSettings
	f := &domain.PartialFilters{}
	so := &domain.PartialSort{}
	touchedFilters, touchedSort := false, false

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return p, fmt.Errorf("expected key=value, got %q", arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if field, bound, ok := strings.Cut(key, "."); ok {
			r, err := rangeFor(f, field)
			if err != nil {
				return p, err
			}
			n, err := parseBound(field, bound, value)
			if err != nil {
				return p, fmt.Errorf("%s: %w", key, err)
			}
			switch bound {
			case "min":
				r.Min = &n
			case "max":
				r.Max = &n
			default:
				return p, fmt.Errorf("unknown bound %q (want min or max)", bound)
			}
			touchedFilters = true
			continue
		}

		switch key {
		case "upload":
			u := domain.UploadDate(strings.ToLower(value))
			if !u.Valid() {
				return p, fmt.Errorf("upload: unknown window %q", value)
			}
			f.UploadDate = &u
			touchedFilters = true
		case "channels":
			f.Channels = splitList(value)
			touchedFilters = true
		case "categories":
			f.Categories = splitList(value)
			touchedFilters = true
		case "keywords":
			f.Keywords = &value
			touchedFilters = true
		case "sort":
			by := domain.SortBy(strings.ToLower(value))
			if !by.Valid() {
				return p, fmt.Errorf("sort: unknown field %q", value)
			}
			so.By = &by
			touchedSort = true
		case "direction":
			dir := domain.SortDirection(strings.ToLower(value))
			if dir != domain.SortAsc && dir != domain.SortDesc {
				return p, fmt.Errorf("direction: want asc or desc, got %q", value)
			}
			so.Direction = &dir
			touchedSort = true
		default:
			return p, fmt.Errorf("unknown setting %q", key)
		}
	}

	if touchedFilters {
		p.Filters = f
	}
	if touchedSort {
		p.Sort = so
	}
	return p, nil
}

func rangeFor(f *domain.PartialFilters, field string) (*domain.PartialRange, error) {
	var slot **domain.PartialRange
	switch field {
	case "views":
		slot = &f.ViewCount
	case "likes":
		slot = &f.LikeCount
	case "comments":
		slot = &f.CommentCount
	case "duration":
		slot = &f.Duration
	default:
		return nil, fmt.Errorf("unknown range %q", field)
	}
	if *slot == nil {
		*slot = &domain.PartialRange{}
	}
	return *slot, nil
}

func parseBound(field, bound, value string) (int64, error) {
	if bound == "max" && strings.EqualFold(value, "none") {
		return -1, nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return n, nil
	}
	if field == "duration" {
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return int64(d / time.Second), nil
	}
	return 0, fmt.Errorf("invalid number %q", value)
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
