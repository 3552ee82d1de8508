package zerodha

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/patrickmn/go-cache"

	"kite-alert-backtest/internal/interfaces"
	"kite-alert-backtest/internal/types"
)

var (
	ErrInstrumentsMissing = errors.New("instruments file not found")
	ErrInstrumentNotFound = errors.New("instrument not found")
)

const (
	equityType = "EQ"
	// NSE equities sometimes carry this segment code instead of the exchange name.
	nseSegmentCode = "NS"

	instrumentsTTL = 24 * time.Hour
)

// instrumentRow holds the columns of the Kite instruments dump we use.
type instrumentRow struct {
	InstrumentToken string `csv:"instrument_token"`
	Tradingsymbol   string `csv:"tradingsymbol"`
	Name            string `csv:"name"`
	InstrumentType  string `csv:"instrument_type"`
	Segment         string `csv:"segment"`
	Exchange        string `csv:"exchange"`
}

// LoadInstruments reads the instruments dump at path and keeps equity rows
// for exchange. A zero delimiter is detected from the header line.
func LoadInstruments(path, exchange string, delimiter rune) ([]types.Instrument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInstrumentsMissing, path)
		}
		return nil, err
	}
	return ParseInstruments(bytes.NewReader(b), exchange, delimiter)
}

// ParseInstruments decodes an instruments dump from r.
func ParseInstruments(r io.Reader, exchange string, delimiter rune) ([]types.Instrument, error) {
	br := bufio.NewReader(r)
	if delimiter == 0 {
		delimiter = sniffDelimiter(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var rows []*instrumentRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("parse instruments: %w", err)
	}

	out := make([]types.Instrument, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.InstrumentType) != equityType {
			continue
		}
		ex := strings.TrimSpace(row.Exchange)
		seg := strings.TrimSpace(row.Segment)
		if ex != exchange && seg != exchange && seg != nseSegmentCode {
			continue
		}
		token, err := strconv.Atoi(strings.TrimSpace(row.InstrumentToken))
		if err != nil {
			continue
		}
		symbol := strings.TrimSpace(row.Tradingsymbol)
		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = symbol
		}
		out = append(out, types.Instrument{
			Token:         token,
			Tradingsymbol: symbol,
			Name:          name,
			Exchange:      exchange,
		})
	}
	return out, nil
}

func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.IndexByte(line, '\t') >= 0 {
		return '\t'
	}
	return ','
}

// Directory resolves symbols against a local instruments dump. The parsed
// dump is cached per exchange.
type Directory struct {
	path      string
	exchange  string
	delimiter rune

	cache *cache.Cache
	mu    sync.Mutex
}

var _ interfaces.InstrumentDirectory = (*Directory)(nil)

func NewDirectory(path, exchange string, delimiter rune) *Directory {
	return &Directory{
		path:      path,
		exchange:  exchange,
		delimiter: delimiter,
		cache:     cache.New(instrumentsTTL, time.Hour),
	}
}

func (d *Directory) cacheKey() string {
	return "instruments:" + d.exchange
}

func (d *Directory) index() (map[string]types.Instrument, error) {
	if v, ok := d.cache.Get(d.cacheKey()); ok {
		return v.(map[string]types.Instrument), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.cache.Get(d.cacheKey()); ok {
		return v.(map[string]types.Instrument), nil
	}

	list, err := LoadInstruments(d.path, d.exchange, d.delimiter)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]types.Instrument, len(list))
	for _, inst := range list {
		// first row wins, matching a linear search of the dump
		if _, dup := idx[inst.Tradingsymbol]; !dup {
			idx[inst.Tradingsymbol] = inst
		}
	}
	d.cache.SetDefault(d.cacheKey(), idx)
	return idx, nil
}

// Lookup returns the equity instrument for symbol.
func (d *Directory) Lookup(symbol string) (types.Instrument, error) {
	idx, err := d.index()
	if err != nil {
		return types.Instrument{}, err
	}
	inst, ok := idx[symbol]
	if !ok {
		return types.Instrument{}, fmt.Errorf("%w: %s on %s", ErrInstrumentNotFound, symbol, d.exchange)
	}
	return inst, nil
}

// Len is the number of instruments loaded.
func (d *Directory) Len() (int, error) {
	idx, err := d.index()
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}

// DownloadInstruments fetches the public instruments dump from url and
// writes it to path, replacing any previous file only on success.
func DownloadInstruments(ctx context.Context, client *resty.Client, url, path string) (int64, error) {
	if client == nil {
		client = resty.New().SetTimeout(2 * time.Minute)
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, fmt.Errorf("download instruments: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("download instruments: unexpected status %s", resp.Status())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, resp.Body(), 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return int64(len(resp.Body())), nil
}
