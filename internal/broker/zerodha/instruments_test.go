package zerodha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tabDump = "instrument_token\texchange_token\ttradingsymbol\tname\tlast_price\texpiry\tstrike\ttick_size\tlot_size\tinstrument_type\tsegment\texchange\n" +
	"408065\t1594\tINFY\tINFOSYS\t0\t\t0\t0.05\t1\tEQ\tNSE\tNSE\n" +
	"2953217\t11536\tTCS\t\t0\t\t0\t0.05\t1\tEQ\tNSE\tNSE\n" +
	"12345\t48\tNIFTY24JANFUT\t\t0\t2024-01-25\t0\t0.05\t50\tFUT\tNFO-FUT\tNFO\n" +
	"500209\t1954\tINFY\tINFOSYS BSE\t0\t\t0\t0.05\t1\tEQ\tBSE\tBSE\n" +
	"\n"

const commaDump = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
738561,2885,RELIANCE,"RELIANCE INDUSTRIES, LTD",0,,0,0.05,1,EQ,NSE,NSE
111,1,OTHER,OTHER,0,,0,0.05,1,EQ,NS,XYZ
`

func writeDump(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "instruments.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseInstruments_TabDelimited(t *testing.T) {
	got, err := ParseInstruments(strings.NewReader(tabDump), "NSE", '\t')
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 408065, got[0].Token)
	assert.Equal(t, "INFY", got[0].Tradingsymbol)
	assert.Equal(t, "INFOSYS", got[0].Name)
	assert.Equal(t, "TCS", got[1].Name, "name falls back to symbol")
	assert.Equal(t, "NSE", got[1].Exchange)
}

func TestParseInstruments_SniffsComma(t *testing.T) {
	got, err := ParseInstruments(strings.NewReader(commaDump), "NSE", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RELIANCE INDUSTRIES, LTD", got[0].Name)
	assert.Equal(t, "OTHER", got[1].Tradingsymbol, "segment NS matches")
}

func TestLoadInstruments_Missing(t *testing.T) {
	_, err := LoadInstruments(filepath.Join(t.TempDir(), "none.csv"), "NSE", 0)
	assert.ErrorIs(t, err, ErrInstrumentsMissing)
}

func TestDirectory_Lookup(t *testing.T) {
	p := writeDump(t, tabDump)
	d := NewDirectory(p, "NSE", '\t')

	inst, err := d.Lookup("INFY")
	require.NoError(t, err)
	assert.Equal(t, 408065, inst.Token)

	_, err = d.Lookup("WIPRO")
	assert.ErrorIs(t, err, ErrInstrumentNotFound)

	n, err := d.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// cached: removing the file does not affect an already loaded directory
	require.NoError(t, os.Remove(p))
	_, err = d.Lookup("TCS")
	require.NoError(t, err)

	_, err = NewDirectory(p, "NSE", '\t').Lookup("TCS")
	assert.ErrorIs(t, err, ErrInstrumentsMissing)
}

func TestDirectory_SniffedTabDump(t *testing.T) {
	d := NewDirectory(writeDump(t, tabDump), "NSE", 0)
	inst, err := d.Lookup("TCS")
	require.NoError(t, err)
	assert.Equal(t, 2953217, inst.Token)
	assert.Equal(t, "TCS", inst.Name)
}

func TestDownloadInstruments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(commaDump))
	}))
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "data", "instruments.csv")
	n, err := DownloadInstruments(context.Background(), resty.New(), srv.URL, p)
	require.NoError(t, err)
	assert.Equal(t, int64(len(commaDump)), n)

	got, err := LoadInstruments(p, "NSE", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDownloadInstruments_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "instruments.csv")
	_, err := DownloadInstruments(context.Background(), nil, srv.URL, p)
	assert.Error(t, err)
	assert.NoFileExists(t, p)
}
