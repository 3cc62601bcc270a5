package parser

import (
	"strings"
	"testing"

	"github.com/secstrace/secstrace/internal/record"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	require.Equal(t, FormatJSONArray, Sniff([]byte(`[{"ts_iso":"x"}]`)))
	require.Equal(t, FormatNDJSON, Sniff([]byte("{\"ts\":\"x\"}\n{\"ts\":\"y\"}\n")))
	require.Equal(t, FormatCSV, Sniff([]byte("ts,dir,s,f,wbit,sysbytes,ceid,body_json\n")))
	require.Equal(t, FormatUnknown, Sniff([]byte("plain text, no structure")))
}

func TestNDJSONParser(t *testing.T) {
	src := strings.Join([]string{
		`{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":13,"wbit":true,"sysbytes":100,"body_json":{"kind":"EventReport"}}`,
		``,
		`{"ts_iso":"2024-01-01T00:00:01Z","dir":"E->H","s":1,"f":14,"wbit":false,"sysbytes":100,"body_json":{"kind":"EventReport"}}`,
	}, "\n")

	var got []record.Message
	p := NDJSONParser{}
	err := p.Parse(strings.NewReader(src), func(m record.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, record.DirHostToEquipment, got[0].Dir)
	require.Equal(t, record.DirEquipmentToHost, got[1].Dir)
}

func TestNDJSONParserLineNumberOnError(t *testing.T) {
	src := "{\"ts_iso\":\"2024-01-01T00:00:00Z\",\"dir\":\"H->E\",\"s\":1,\"f\":13,\"wbit\":true,\"sysbytes\":1,\"body_json\":{}}\nnot json\n"
	p := NDJSONParser{}
	err := p.Parse(strings.NewReader(src), func(record.Message) error { return nil })
	require.Error(t, err)
	var re *record.Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, 2, re.Pos)
}

func TestJSONArrayParser(t *testing.T) {
	src := `[
		{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":13,"wbit":true,"sysbytes":1,"body_json":{}},
		{"ts_iso":"2024-01-01T00:00:01Z","dir":"E->H","s":1,"f":14,"wbit":false,"sysbytes":1,"body_json":{}}
	]`
	var got []record.Message
	p := JSONArrayParser{}
	err := p.Parse(strings.NewReader(src), func(m record.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestCSVParser(t *testing.T) {
	src := "ts_iso,dir,s,f,wbit,sysbytes,ceid,body_json\n" +
		"2024-01-01T00:00:00Z,H->E,1,13,true,1,0,\"{\"\"kind\"\":\"\"EventReport\"\"}\"\n"
	var got []record.Message
	p := CSVParser{}
	err := p.Parse(strings.NewReader(src), func(m record.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.EqualValues(t, 1, got[0].Stream)
	require.EqualValues(t, 13, got[0].Function)
}

func TestRegistryParseAuto(t *testing.T) {
	reg := NewRegistry()
	src := `[{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":13,"wbit":true,"sysbytes":1,"body_json":{}}]`
	var got []record.Message
	err := reg.ParseAuto(strings.NewReader(src), func(m record.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRegistrySingleLineNoTrailingNewline(t *testing.T) {
	// The sniffer cannot call a newline-less prefix NDJSON, but the
	// trial pass should still hand it to the NDJSON parser.
	reg := NewRegistry()
	src := `{"ts_iso":"2024-01-01T00:00:00Z","dir":"H->E","s":1,"f":13,"wbit":1,"sysbytes":1,"body_json":{}}`
	var got []record.Message
	err := reg.ParseAuto(strings.NewReader(src), func(m record.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].WBit)
}

func TestRegistryEmptyInput(t *testing.T) {
	reg := NewRegistry()
	err := reg.ParseAuto(strings.NewReader("  \n\t\n"), func(record.Message) error {
		t.Fatal("no records expected from an empty source")
		return nil
	})
	require.NoError(t, err)
}

func TestRegistryUnknownFormat(t *testing.T) {
	reg := NewRegistry()
	err := reg.ParseAuto(strings.NewReader("not a recognized source format at all"), func(record.Message) error { return nil })
	require.Error(t, err)
	kind, ok := record.KindOf(err)
	require.True(t, ok)
	require.Equal(t, record.UnknownFormat, kind)
}
