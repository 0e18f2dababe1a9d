package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sir_venger/vidshelf/internal/models"
)

const rangeUnitPrefix = "bytes="

// ByteRange — включающий диапазон [Start, End] байтов файла.
type ByteRange struct {
	Start int64
	End   int64
}

// Length возвращает число байтов в диапазоне.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange форматирует значение заголовка Content-Range для файла размера size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange разбирает заголовок вида "bytes=<start>-<end>" для файла размера size.
// End необязателен и по умолчанию равен последнему байту. Нарушение
// 0 <= start <= end < size возвращает ErrRangeNotSatisfiable, значения не подрезаются.
func ParseRange(header string, size int64) (ByteRange, error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), rangeUnitPrefix)
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: unsupported range unit", models.ErrRangeNotSatisfiable)
	}
	if strings.Contains(spec, ",") {
		return ByteRange{}, fmt.Errorf("%w: multiple ranges", models.ErrRangeNotSatisfiable)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: malformed range %q", models.ErrRangeNotSatisfiable, header)
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return ByteRange{}, err
	}

	end := size - 1
	if strings.TrimSpace(endStr) != "" {
		if end, err = parseOffset(endStr); err != nil {
			return ByteRange{}, err
		}
	}

	if start > end || end >= size {
		return ByteRange{}, fmt.Errorf("%w: bytes %d-%d of %d", models.ErrRangeNotSatisfiable, start, end, size)
	}

	return ByteRange{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	s = strings.TrimSpace(s)
	// ParseInt принимает знак, а в диапазоне допустимы только цифры.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w: invalid offset %q", models.ErrRangeNotSatisfiable, s)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid offset %q", models.ErrRangeNotSatisfiable, s)
	}

	return n, nil
}
