package gateway

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"flashmatch/domain/orderbook"
)

// ParseOrderLine parses one bulk-data row of the form
//
//	order_id,symbol,side,price,quantity,type
//
// into an order value. Tokenization is done by hand so the hot warmup path
// allocates only for the decimal price.
func ParseOrderLine(line string) (orderbook.Order, error) {
	var fields [6]string
	rest := line
	for i := 0; i < 5; i++ {
		idx := strings.IndexByte(rest, ',')
		if idx < 0 {
			return orderbook.Order{}, fmt.Errorf("gateway: malformed row %q", line)
		}
		fields[i] = rest[:idx]
		rest = rest[idx+1:]
	}
	fields[5] = rest

	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("gateway: bad order id %q: %w", fields[0], err)
	}
	side, err := ParseSide(fields[2])
	if err != nil {
		return orderbook.Order{}, err
	}
	price, err := decimal.NewFromString(fields[3])
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("gateway: bad price %q: %w", fields[3], err)
	}
	qty, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("gateway: bad quantity %q: %w", fields[4], err)
	}
	otype, err := ParseOrderType(fields[5])
	if err != nil {
		return orderbook.Order{}, err
	}

	return orderbook.Order{
		ID:     id,
		Symbol: fields[1],
		Side:   side,
		Price:  price,
		Qty:    qty,
		Type:   otype,
	}, nil
}

// LoadCSV streams the file line by line into fn. A leading header row is
// skipped; any other unparseable row aborts the load so bad bulk data is
// caught instead of silently thinning the book.
func LoadCSV(path string, fn func(orderbook.Order) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<16), 1<<20)

	first := true
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "order_id,") {
				continue
			}
		}
		o, err := ParseOrderLine(line)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return sc.Err()
}
