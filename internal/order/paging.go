package order

// DefaultPageSize keeps the rendered control layout within the chat
// platform's 5-row limit: one row per item plus one navigation row.
const DefaultPageSize = 4

// Pages returns the number of pages needed for itemCount items. An
// empty order still has one (empty) page.
func Pages(itemCount, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	n := (itemCount + pageSize - 1) / pageSize
	if n < 1 {
		n = 1
	}
	return n
}

// ClampPage clamps page into [0, totalPages-1].
func ClampPage(page, itemCount, pageSize int) int {
	last := Pages(itemCount, pageSize) - 1
	if page < 0 {
		return 0
	}
	if page > last {
		return last
	}
	return page
}

// PageBounds returns the half-open index range [start, end) of the
// items visible on the given page. The page is clamped first, so the
// result is always a valid slice range.
func PageBounds(page, itemCount, pageSize int) (start, end int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page = ClampPage(page, itemCount, pageSize)
	start = page * pageSize
	end = start + pageSize
	if end > itemCount {
		end = itemCount
	}
	return start, end
}
