package config

import (
	"errors"
	"strings"
	"testing"

	"rtunnel/internal/models"

	"github.com/spf13/afero"
)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }
func boolp(b bool) *bool    { return &b }

func testDefaults() models.TunnelConfig {
	d := Defaults()
	d.LocalUser = "tester"
	return d
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveCLIOnly(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/tester/.config")
	fs := afero.NewMemMapFs()

	cfg, err := Resolve(fs, testDefaults(), "", Layer{
		ServerUser: strp("alice"),
		ServerHost: strp("example.com"),
		RemotePort: intp(3333),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := models.TunnelConfig{
		ServerUser:           "alice",
		ServerHost:           "example.com",
		ServerPort:           22,
		LocalPort:            22,
		RemotePort:           3333,
		MonitorPort:          20000,
		LocalUser:            "tester",
		ServerAliveInterval:  60,
		ServerAliveCountMax:  3,
		ExitOnForwardFailure: true,
		InstallService:       false,
	}
	if cfg != want {
		t.Errorf("Resolve = %+v, want %+v", cfg, want)
	}
}

func TestResolvePrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tmp/t.conf", `# test config
SERVER_SSH_USER=bob
SERVER_SSH_HOST=foo.net
SERVER_SSH_PORT=2200
MONITOR_PORT=21000
`)

	cfg, err := Resolve(fs, testDefaults(), "/tmp/t.conf", Layer{
		ServerHost: strp("bar.net"),
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.ServerHost != "bar.net" {
		t.Errorf("CLI must override file: ServerHost = %q", cfg.ServerHost)
	}
	if cfg.ServerUser != "bob" {
		t.Errorf("file must override defaults: ServerUser = %q", cfg.ServerUser)
	}
	if cfg.ServerPort != 2200 || cfg.MonitorPort != 21000 {
		t.Errorf("file ports not applied: %+v", cfg)
	}
	// 文件里没有设置的字段保持默认值
	if cfg.LocalPort != 22 || cfg.RemotePort != 2222 || cfg.ServerAliveInterval != 60 {
		t.Errorf("unset fields lost defaults: %+v", cfg)
	}
}

func TestResolveEmptyFileValueKeepsDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tmp/t.conf", "SERVER_SSH_USER=bob\nSERVER_SSH_HOST=foo.net\nLOCAL_SSH_PORT=\nSERVER_ALIVE_INTERVAL=\"\"\n")

	cfg, err := Resolve(fs, testDefaults(), "/tmp/t.conf", Layer{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.LocalPort != 22 || cfg.ServerAliveInterval != 60 {
		t.Errorf("empty variables must not overwrite: %+v", cfg)
	}
}

func TestResolveMissingRequired(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/tester/.config")
	fs := afero.NewMemMapFs()

	_, err := Resolve(fs, testDefaults(), "", Layer{ServerUser: strp("alice")})
	if !errors.Is(err, models.ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	_, err = Resolve(fs, testDefaults(), "", Layer{ServerHost: strp("example.com")})
	if !errors.Is(err, models.ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	// CLI can blank out a value the file set
	writeFile(t, fs, "/tmp/t.conf", "SERVER_SSH_USER=bob\nSERVER_SSH_HOST=foo.net\n")
	_, err = Resolve(fs, testDefaults(), "/tmp/t.conf", Layer{ServerUser: strp("")})
	if !errors.Is(err, models.ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
}

func TestResolveExplicitFileNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Resolve(fs, testDefaults(), "/nowhere.conf", Layer{
		ServerUser: strp("alice"),
		ServerHost: strp("example.com"),
	})
	if !errors.Is(err, models.ErrConfigFileNotFound) {
		t.Fatalf("expected ErrConfigFileNotFound, got %v", err)
	}
}

func TestResolveInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tmp/bad.conf", "SERVER_SSH_USER=bob\nSERVER_SSH_HOST=foo.net\nSERVER_SSH_PORT=ssh\n")
	if _, err := Resolve(fs, testDefaults(), "/tmp/bad.conf", Layer{}); !errors.Is(err, models.ErrInvalidValue) {
		t.Errorf("non-numeric port: expected ErrInvalidValue, got %v", err)
	}

	writeFile(t, fs, "/tmp/ok.conf", "SERVER_SSH_USER=bob\nSERVER_SSH_HOST=foo.net\n")
	if _, err := Resolve(fs, testDefaults(), "/tmp/ok.conf", Layer{RemotePort: intp(70000)}); !errors.Is(err, models.ErrInvalidValue) {
		t.Errorf("port out of range: expected ErrInvalidValue, got %v", err)
	}
	if _, err := Resolve(fs, testDefaults(), "/tmp/ok.conf", Layer{LocalPort: intp(0)}); !errors.Is(err, models.ErrInvalidValue) {
		t.Errorf("port zero: expected ErrInvalidValue, got %v", err)
	}

	writeFile(t, fs, "/tmp/bool.conf", "SERVER_SSH_USER=bob\nSERVER_SSH_HOST=foo.net\nEXIT_ON_FORWARD_FAILURE=maybe\n")
	if _, err := Resolve(fs, testDefaults(), "/tmp/bool.conf", Layer{}); !errors.Is(err, models.ErrInvalidValue) {
		t.Errorf("bad boolean: expected ErrInvalidValue, got %v", err)
	}
}

func TestFindConfigFileSearchOrder(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/tester/.config")
	fs := afero.NewMemMapFs()

	if p, err := FindConfigFile(fs, ""); err != nil || p != "" {
		t.Fatalf("empty fs: got %q, %v", p, err)
	}

	userPath := "/home/tester/.config/rtunnel/rtunnel.conf"
	writeFile(t, fs, userPath, "SERVER_SSH_HOST=user.example\n")
	if p, _ := FindConfigFile(fs, ""); p != userPath {
		t.Errorf("expected user config, got %q", p)
	}

	writeFile(t, fs, "/etc/rtunnel.conf", "SERVER_SSH_HOST=system.example\n")
	if p, _ := FindConfigFile(fs, ""); p != "/etc/rtunnel.conf" {
		t.Errorf("system config must win over user config, got %q", p)
	}

	writeFile(t, fs, "rtunnel.conf", "SERVER_SSH_HOST=cwd.example\n")
	if p, _ := FindConfigFile(fs, ""); p != "rtunnel.conf" {
		t.Errorf("current directory must win, got %q", p)
	}
}

func TestResolveBooleansFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/tmp/t.conf", `SERVER_SSH_USER="bob"
SERVER_SSH_HOST='foo.net'
INSTALL_LOCAL_SERVICE=yes
EXIT_ON_FORWARD_FAILURE=no
`)
	cfg, err := Resolve(fs, testDefaults(), "/tmp/t.conf", Layer{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !cfg.InstallService || cfg.ExitOnForwardFailure {
		t.Errorf("booleans not parsed: %+v", cfg)
	}
	if cfg.ServerUser != "bob" || cfg.ServerHost != "foo.net" {
		t.Errorf("quotes not stripped: %+v", cfg)
	}

	cfg, err = Resolve(fs, testDefaults(), "/tmp/t.conf", Layer{InstallService: boolp(false)})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.InstallService {
		t.Errorf("CLI false must override file true")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := testDefaults()
	in.ServerUser = "alice"
	in.ServerHost = "example.com"
	in.RemotePort = 3333
	in.ExitOnForwardFailure = false
	in.InstallService = true

	if err := WriteFile(fs, "/etc/rtunnel.conf", in); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	fi, err := fs.Stat("/etc/rtunnel.conf")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}

	out, err := Resolve(fs, Defaults(), "/etc/rtunnel.conf", Layer{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}

	text := string(Encode(in))
	for _, want := range []string{`SERVER_SSH_USER="alice"`, "SERVER_SSH_FORWARD_PORT=3333", "EXIT_ON_FORWARD_FAILURE=no"} {
		if !strings.Contains(text, want) {
			t.Errorf("encoded file missing %q:\n%s", want, text)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"yes", "YES", "on", "true", "1", "y"} {
		if b, err := ParseBool(s); err != nil || !b {
			t.Errorf("ParseBool(%q) = %v, %v", s, b, err)
		}
	}
	for _, s := range []string{"no", "Off", "false", "0", "n"} {
		if b, err := ParseBool(s); err != nil || b {
			t.Errorf("ParseBool(%q) = %v, %v", s, b, err)
		}
	}
	if _, err := ParseBool("sometimes"); err == nil {
		t.Errorf("ParseBool accepted garbage")
	}
}

func TestValidateRejectsShellMetacharacters(t *testing.T) {
	base := testDefaults()
	base.ServerUser = "alice"
	base.ServerHost = "example.com"
	if err := Validate(base); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	for _, tc := range []struct {
		name string
		mod  func(*models.TunnelConfig)
	}{
		{"user with space", func(c *models.TunnelConfig) { c.ServerUser = "al ice" }},
		{"host with command", func(c *models.TunnelConfig) { c.ServerHost = "example.com;reboot" }},
		{"local user with dollar", func(c *models.TunnelConfig) { c.LocalUser = "$USER" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mod(&cfg)
			if err := Validate(cfg); !errors.Is(err, models.ErrInvalidValue) {
				t.Errorf("expected ErrInvalidValue, got %v", err)
			}
		})
	}
}
