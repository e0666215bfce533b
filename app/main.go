package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trackjobs/trackjobs/app/config"
	"github.com/trackjobs/trackjobs/app/store"
	"github.com/trackjobs/trackjobs/app/table"
)

var opts struct {
	Config      string `short:"c" long:"config" env:"TRACKJOBS_CONFIG" description:"config file location"`
	TableFile   string `long:"table" env:"TRACKJOBS_TABLE" description:"job table file, overrides config"`
	CommandFile string `long:"command-file" env:"TRACKJOBS_COMMAND_FILE" description:"status command file, overrides config"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging"`
		Filename        string `long:"file" env:"FILE" description:"log to file instead of stdout"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file (in MB)"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of rotated log files (in days)"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"enable compression of rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"TRACKJOBS_LOG"`

	Dbg bool `long:"dbg" env:"TRACKJOBS_DEBUG" description:"debug mode"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	p.SubcommandsOptional = true // no command defaults to show-unfinished

	registerCommands(p)

	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "trackjobs failed: %v\n", err)
		os.Exit(1)
	}

	if p.Active == nil {
		if err := (&showUnfinishedCommand{}).Execute(nil); err != nil {
			fmt.Fprintf(os.Stderr, "trackjobs failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func registerCommands(p *flags.Parser) {
	cmds := []struct {
		name  string
		short string
		data  interface{}
	}{
		{"add", "add job to the table", &addCommand{}},
		{"del", "delete job(s) from the table", &delCommand{}},
		{"mod", "modify a field of a job", &modCommand{}},
		{"show", "show selected job(s)", &showCommand{}},
		{"show-all", "show all jobs", &showAllCommand{}},
		{"show-unfinished", "show unchecked jobs (default)", &showUnfinishedCommand{}},
		{"filter", "show jobs matching a column value", &filterCommand{}},
		{"sort", "show the table sorted by a column", &sortCommand{}},
		{"print-dir", "print directory of a job", &printDirCommand{}},
		{"set-ok", "set job status to OK and mark checked", &setOkCommand{}},
		{"set-fail", "set job status to FAILED and mark checked", &setFailCommand{}},
		{"update-id", "replace a job id with a new one", &updateIDCommand{}},
		{"check", "reconcile unchecked jobs with the queue", &checkCommand{}},
		{"history", "show recent reconcile passes", &historyCommand{}},
	}
	for _, c := range cmds {
		if _, err := p.AddCommand(c.name, c.short, "", c.data); err != nil {
			fmt.Fprintf(os.Stderr, "can't register %s command: %v\n", c.name, err)
			os.Exit(2)
		}
	}
}

// preflight sets up logging and loads the effective configuration. Called at
// the top of every command.
func preflight() (config.Config, error) {
	setupLogs()

	loc := opts.Config
	if loc == "" {
		loc = config.DefaultLocation()
	}
	cfg, err := config.Load(loc)
	if err != nil {
		return config.Config{}, err
	}
	if opts.TableFile != "" {
		cfg.TableFile = opts.TableFile
	}
	if opts.CommandFile != "" {
		cfg.CommandFile = opts.CommandFile
	}
	log.Printf("[DEBUG] table %s, command file %s", cfg.TableFile, cfg.CommandFile)
	return cfg, nil
}

// loadTable loads the table snapshot from the configured store.
func loadTable(cfg config.Config) (table.Table, *store.CSV, error) {
	st := &store.CSV{Path: cfg.TableFile}
	tbl, err := st.Load()
	if err != nil {
		return table.Table{}, nil, err
	}
	return tbl, st, nil
}

func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
		return os.Stdout
	}

	log.Setup(log.Msec)
	if opts.Dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}

	if opts.Log.Filename != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
		log.Setup(log.Out(fileLogger), log.Err(fileLogger))
		return fileLogger
	}
	return os.Stdout
}
