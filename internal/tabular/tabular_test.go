package tabular

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wideCSV = "ÍNDICE DE DESEMPENHO NO ATENDIMENTO - IDA;;;\n" +
	"SERVIÇO: SMP;;;\n" +
	"PERÍODO: 2017;;;\n" +
	"GRUPO ECONÔMICO;VARIÁVEL;2017-01;2017-02\n" +
	"TIM;Taxa de Resolvidas em 5 dias;95,5;96,1\n" +
	"VIVO;Taxa de Resolvidas em 5 dias;90.2;\n" +
	";;;\n" +
	"FONTE: ANATEL;;;\n"

func drain(r *Rows) []Row {
	var out []Row
	for {
		row, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, row)
	}
}

func TestParse_WideCSV(t *testing.T) {
	rows, err := Parse([]byte(wideCSV), "csv")
	require.NoError(t, err)

	got := drain(rows)
	require.Len(t, got, 3)

	assert.Equal(t, Row{Group: "TIM", Service: "Taxa de Resolvidas em 5 dias", Month: "2017-01", Value: "95,5"}, got[0])
	assert.Equal(t, Row{Group: "TIM", Service: "Taxa de Resolvidas em 5 dias", Month: "2017-02", Value: "96,1"}, got[1])
	// VIVO's empty 2017-02 cell is not an observation at all.
	assert.Equal(t, Row{Group: "VIVO", Service: "Taxa de Resolvidas em 5 dias", Month: "2017-01", Value: "90.2"}, got[2])
}

func TestParse_WideCSV_TimestampHeaders(t *testing.T) {
	csv := "GRUPO_ECONOMICO\tVARIAVEL\t2013-01-01 00:00:00\n" +
		"CLARO\tIndicador X\t12,3\n"

	rows, err := Parse([]byte(csv), "csv")
	require.NoError(t, err)

	got := drain(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "2013-01-01 00:00:00", got[0].Month)
	assert.Equal(t, "CLARO", got[0].Group)
}

func TestParse_LongCSV(t *testing.T) {
	csv := "GRUPO_ECONOMICO;SERVICO;MES_REFERENCIA;VALOR\n" +
		"OI;Taxa de respostas;2018-03;88,7\n" +
		"TIM;Taxa de respostas;2018-03;91\n"

	rows, err := Parse([]byte(csv), "csv")
	require.NoError(t, err)

	got := drain(rows)
	require.Len(t, got, 2)
	assert.Equal(t, Row{Group: "OI", Service: "Taxa de respostas", Month: "2018-03", Value: "88,7"}, got[0])
}

func TestParse_Latin1Fallback(t *testing.T) {
	// "GRUPO ECONÔMICO" with Ô as Latin-1 0xD4 is not valid UTF-8.
	header := append([]byte("GRUPO ECON\xd4MICO;VARI\xc1VEL;2017-01\n"), []byte("ALGAR;Indicador;1,5\n")...)

	rows, err := Parse(header, "csv")
	require.NoError(t, err)

	got := drain(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "ALGAR", got[0].Group)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("whatever"), "ods")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Parse([]byte("whatever"), "pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParse_NoHeader(t *testing.T) {
	_, err := Parse([]byte("a;b;c\n1;2;3\n"), "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestParse_LongMissingValueColumn(t *testing.T) {
	csv := "GRUPO_ECONOMICO;SERVICO;MES_REFERENCIA\nOI;x;2018-03\n"
	_, err := Parse([]byte(csv), "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Contains(t, err.Error(), "missing value column")
}

func TestRows_SinglePass(t *testing.T) {
	rows, err := Parse([]byte("GRUPO_ECONOMICO;VARIAVEL;2017-01\nTIM;x;1\n"), "csv")
	require.NoError(t, err)

	assert.Equal(t, 1, rows.Len())
	_, ok := rows.Next()
	assert.True(t, ok)
	assert.Equal(t, 0, rows.Len())
	_, ok = rows.Next()
	assert.False(t, ok)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter("a;b;c\n"))
	assert.Equal(t, '\t', sniffDelimiter("a\tb\tc\n"))
	assert.Equal(t, ',', sniffDelimiter("a,b,c\n"))
	// Semicolon wins ties and empty input.
	assert.Equal(t, ';', sniffDelimiter(""))
}

func TestSniffDelimiter_SkipsBlankLines(t *testing.T) {
	assert.Equal(t, '\t', sniffDelimiter("\n\na\tb\n"))
}

func TestSniffDelimiter_BannerWithoutDelimiter(t *testing.T) {
	assert.Equal(t, '\t', sniffDelimiter("ÍNDICE DE DESEMPENHO NO ATENDIMENTO - IDA\nGRUPO ECONÔMICO\tVARIÁVEL\t2017-01\n"))
}

// Tab-separated files open with a banner line carrying no delimiter at all.
// The sniffer must look past it to the header.
func TestParse_BannerPrefixedTabSeparated(t *testing.T) {
	data := "ÍNDICE DE DESEMPENHO NO ATENDIMENTO - IDA\n" +
		"GRUPO ECONÔMICO\tVARIÁVEL\t2017-01\n" +
		"TIM\tTaxa de Resolvidas em 5 dias\t95,5\n"

	rows, err := Parse([]byte(data), "csv")
	require.NoError(t, err)

	got := drain(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "TIM", got[0].Group)
	assert.Equal(t, "Taxa de Resolvidas em 5 dias", got[0].Service)
	assert.Equal(t, "2017-01", got[0].Month)
	assert.Equal(t, "95,5", got[0].Value)
}

func TestDecodeText_UTF8(t *testing.T) {
	s, err := decodeText([]byte("olá mundo"))
	require.NoError(t, err)
	assert.Equal(t, "olá mundo", s)
}

func TestDecodeText_Windows1252(t *testing.T) {
	s, err := decodeText([]byte("S\xe3o Paulo")) // "São Paulo" in cp1252
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", s)
}

func TestIsMetadataRow(t *testing.T) {
	assert.True(t, isMetadataRow([]string{"Fonte: Anatel", ""}))
	assert.True(t, isMetadataRow([]string{"", "Para maiores informações acesse o portal"}))
	assert.False(t, isMetadataRow([]string{"TIM", "Indicador", "1,5"}))
}
