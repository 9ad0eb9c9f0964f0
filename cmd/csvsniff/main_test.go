package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/sniff/model"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const stock = "Артикул;Наименование;Кол-во\nA-1;Нож;3\nA-2;Фонарь;7\n"

func TestSniffCommand(t *testing.T) {
	out, _, err := execute(t, "", "sniff", writeFile(t, "stock.csv", stock))
	require.NoError(t, err)

	var rep model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, ";", rep.Separator)
	assert.Equal(t, 2, rep.Rows)
	assert.Equal(t, model.KindNumber, rep.Columns[2].Kind)
}

func TestRowsCommand(t *testing.T) {
	out, _, err := execute(t, "", "rows", writeFile(t, "stock.csv", stock), "--columns", "кол-во,Артикул")
	require.NoError(t, err)
	assert.Equal(t,
		`{"Артикул":"A-1","Кол-во":"3"}`+"\n"+`{"Артикул":"A-2","Кол-во":"7"}`+"\n",
		out)
}

func TestCountStdin(t *testing.T) {
	out, _, err := execute(t, stock, "count", "-")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestSeparatorFlag(t *testing.T) {
	out, _, err := execute(t, "a\tb\n1\t2\n", "count", "-", "--separator", "tab", "--force-header")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestCommandErrors(t *testing.T) {
	_, _, err := execute(t, "", "count", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = execute(t, "1;2\n3;4\n", "sniff", "-", "--force-header")
	assert.ErrorIs(t, err, dialect.ErrDetectionFailed)

	_, _, err = execute(t, "", "sniff")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "csvsniff dev")
}
