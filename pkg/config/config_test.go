package config

import (
	"flag"
	"os"
	"testing"
)

// The -env flag must exist before main parses the command line, and nothing
// in this package may trigger the parse itself: a Load during program init
// (logger autoload) would otherwise reject flags that main has yet to define.
func TestEnvFlagRegisteredAtInit(t *testing.T) {
	if flag.Lookup("env") == nil {
		t.Fatal("-env flag not registered at package init")
	}
}

func TestEnvPathUnsetBeforeParse(t *testing.T) {
	envFilePath = "ignored.env"
	defer func() { envFilePath = "" }()

	if got := envPathIfParsed(false); got != "" {
		t.Fatalf("envPathIfParsed(false) = %q, want empty before the command line is parsed", got)
	}
	if got := envPathIfParsed(true); got != "ignored.env" {
		t.Fatalf("envPathIfParsed(true) = %q, want %q", got, "ignored.env")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	type conf struct {
		Endpoint string `required:"true"`
		Retries  int    `default:"3"`
	}

	os.Setenv("TESTCFG_ENDPOINT", "https://api.local")
	defer os.Unsetenv("TESTCFG_ENDPOINT")

	got, err := Load[conf]("TESTCFG")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Endpoint != "https://api.local" {
		t.Errorf("Endpoint = %q", got.Endpoint)
	}
	if got.Retries != 3 {
		t.Errorf("Retries = %d, want default 3", got.Retries)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	type conf struct {
		Token string `required:"true"`
	}

	if _, err := Load[conf]("TESTCFG_ABSENT"); err == nil {
		t.Fatal("Load() = nil error, want failure for missing required field")
	}
}
