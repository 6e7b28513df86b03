package cli

import (
	"bytes"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/version"
	_ "github.com/javelinws/javelin/internal/testhelper"
)

func TestRuntimeTableRendering(t *testing.T) {
	runtimes := []jvm.LocalRuntime{
		{
			Vendor:   "eclipse",
			Version:  version.MustParse("11.0.2"),
			OS:       jvm.Linux,
			JavaHome: "/opt/javelin/runtimes/eclipse-11.0.2",
			Managed:  true,
			Active:   true,
		},
		{
			Vendor:   "zulu",
			Version:  version.MustParse("1.8.0_242"),
			OS:       jvm.Linux,
			JavaHome: "/usr/lib/jvm/zulu-8",
			Managed:  false,
			Active:   false,
		},
	}

	var buf bytes.Buffer
	printTable(&buf, runtimeHeaders, runtimeRows(runtimes))

	snaps.MatchSnapshot(t, buf.String())
}

func TestPrintTableEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, runtimeHeaders, nil)
	assert.Empty(t, buf.String())
}

func TestRuntimeRowsFlags(t *testing.T) {
	rows := runtimeRows([]jvm.LocalRuntime{{
		Vendor:   "eclipse",
		Version:  version.MustParse("17"),
		OS:       jvm.MacOS,
		JavaHome: "/tmp/jdk",
		Managed:  true,
		Active:   false,
	}})

	assert.Equal(t, [][]string{{"eclipse", "17", "macos", "yes", "no", "/tmp/jdk"}}, rows)
}
