package handlers

import (
	"errors"
	"strconv"
)

var errInvalidPagination = errors.New("page and limit must be positive integers")

const maxPageLimit = 100

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		limit = min(l, maxPageLimit)
	}

	return page, limit, nil
}

// pageBounds returns the slice bounds of page within total elements.
func pageBounds(page, limit, total int64) (int64, int64) {
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return start, end
}

func totalPages(total, limit int64) int64 {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
