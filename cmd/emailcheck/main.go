// Command emailcheck validates email addresses given as arguments, or read
// from the standard input (one per line).
//
// The exit status is 0 if all addresses are valid, 1 if at least one is
// invalid and 2 if the check could not be performed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"goyave.dev/mailcheck/config"
	"goyave.dev/mailcheck/lang"
	"goyave.dev/mailcheck/slog"
	"goyave.dev/mailcheck/validation"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitError   = 2
)

type flags struct {
	configPath    string
	envFile       string
	language      string
	langDir       string
	nameservers   []string
	timeout       int
	allowName     bool
	enableIDN     bool
	checkDNS      bool
	clientOptions bool
	jsonOutput    bool
	debug         bool
}

type result struct {
	Address string                 `json:"address"`
	Reason  validation.EmailReason `json:"reason"`
	Message string                 `json:"message"`
	Valid   bool                   `json:"valid"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flagSet := pflag.NewFlagSet("emailcheck", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	f := &flags{}
	flagSet.StringVar(&f.configPath, "config", "", "Path of the JSON config file (default: config.json or config.<GOYAVE_ENV>.json if it exists)")
	flagSet.StringVar(&f.envFile, "env-file", ".env", "Path of a .env file loaded before the configuration")
	flagSet.StringVar(&f.language, "lang", "", "Language of the messages (default: app.defaultLanguage)")
	flagSet.StringVar(&f.langDir, "lang-dir", "", "Directory containing additional language directories")
	flagSet.StringSliceVar(&f.nameservers, "nameserver", nil, "DNS server used for the DNS check, may be repeated")
	flagSet.IntVar(&f.timeout, "timeout", 0, "DNS check timeout in seconds")
	flagSet.BoolVar(&f.allowName, "allow-name", false, `Accept the "Name <local@domain>" forms`)
	flagSet.BoolVar(&f.enableIDN, "idn", false, "Accept internationalized addresses")
	flagSet.BoolVar(&f.checkDNS, "check-dns", false, "Require the domain to have a MX, A or AAAA record")
	flagSet.BoolVar(&f.clientOptions, "client-options", false, "Print the client-side validation options as JSON and exit")
	flagSet.BoolVar(&f.jsonOutput, "json", false, "Print the results as JSON lines")
	flagSet.BoolVar(&f.debug, "debug", false, "Enable the development logger")
	if err := flagSet.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitValid
		}
		fmt.Fprintln(stderr, err)
		return exitError
	}

	if err := loadEnv(flagSet, f.envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if err := applyFlags(flagSet, f, cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	logger := slog.New(slog.NewHandler(cfg.GetBool("app.debug"), stderr))

	languages := lang.New()
	languages.Default = cfg.GetString("app.defaultLanguage")
	if f.langDir != "" {
		if err := languages.LoadDirectory(os.DirFS(f.langDir), "."); err != nil {
			logger.Error(err)
			return exitError
		}
	}
	language := languages.GetDefault()
	if f.language != "" {
		language = languages.GetLanguage(f.language)
	}

	validator, err := validation.EmailFromConfig(cfg, nil, validation.WithLogger(logger))
	if err != nil {
		logger.Error(err)
		return exitError
	}

	if f.clientOptions {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(validator.ClientOptions(language, "email")); err != nil {
			logger.Error(err)
			return exitError
		}
		return exitValid
	}

	c := &checker{
		validator: validator,
		language:  language,
		logger:    logger,
		out:       stdout,
		json:      f.jsonOutput,
		code:      exitValid,
	}
	if flagSet.NArg() > 0 {
		for i, address := range flagSet.Args() {
			c.check(ctx, i+1, address)
		}
		return c.code
	}

	scanner := bufio.NewScanner(stdin)
	for line := 1; scanner.Scan(); line++ {
		address := strings.TrimRight(scanner.Text(), "\r")
		if address == "" {
			continue
		}
		c.check(ctx, line, address)
	}
	if err := scanner.Err(); err != nil {
		logger.Error(err)
		return exitError
	}
	return c.code
}

func loadEnv(flagSet *pflag.FlagSet, path string) error {
	err := godotenv.Load(path)
	if err != nil && !flagSet.Changed("env-file") && stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil && stderrors.Is(err, fs.ErrNotExist) {
		return config.LoadDefault(), nil
	}
	return cfg, err
}

// applyFlags overrides the configuration with the flags explicitly set.
func applyFlags(flagSet *pflag.FlagSet, f *flags, cfg *config.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid flag value: %v", r)
		}
	}()

	if flagSet.Changed("debug") {
		cfg.Set("app.debug", f.debug)
	}
	if flagSet.Changed("allow-name") {
		cfg.Set("validation.email.allowName", f.allowName)
	}
	if flagSet.Changed("idn") {
		cfg.Set("validation.email.enableIDN", f.enableIDN)
	}
	if flagSet.Changed("check-dns") {
		cfg.Set("validation.email.checkDNS", f.checkDNS)
	}
	if flagSet.Changed("nameserver") {
		cfg.Set("dns.nameservers", f.nameservers)
	}
	if flagSet.Changed("timeout") {
		cfg.Set("dns.timeout", f.timeout)
		cfg.Set("validation.email.dnsTimeout", f.timeout)
	}
	return nil
}

type checker struct {
	validator *validation.EmailValidator
	language  *lang.Language
	logger    *slog.Logger
	out       io.Writer
	json      bool
	code      int
}

// check validates a single address and prints the verdict. The text output
// identifies addresses by their position and never repeats the input.
func (c *checker) check(ctx context.Context, position int, address string) {
	reason, err := c.validator.Check(ctx, address)
	if err != nil {
		c.logger.Error(err, "position", position)
		c.code = exitError
		return
	}

	res := result{
		Address: address,
		Reason:  reason,
		Valid:   reason == validation.EmailValid,
	}
	if !res.Valid {
		res.Message = c.language.Get(reason.LangEntry(), ":field", validation.GetFieldName(c.language, "email"))
		if c.code == exitValid {
			c.code = exitInvalid
		}
	}

	if c.json {
		if err := json.NewEncoder(c.out).Encode(res); err != nil {
			c.logger.Error(err)
			c.code = exitError
		}
		return
	}

	if res.Valid {
		fmt.Fprintf(c.out, "%d: %s\n", position, c.language.Get("check.valid"))
		return
	}
	fmt.Fprintf(c.out, "%d: %s (%s) %s\n", position, c.language.Get("check.invalid"), reason, res.Message)
}
