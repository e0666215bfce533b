package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/trackjobs/trackjobs/app/conditions"
	"github.com/trackjobs/trackjobs/app/notify"
	"github.com/trackjobs/trackjobs/app/query"
	"github.com/trackjobs/trackjobs/app/reconcile"
	"github.com/trackjobs/trackjobs/app/store"
	"github.com/trackjobs/trackjobs/app/table"
)

// addCommand inserts a new job record into the table.
type addCommand struct {
	ID      int    `short:"I" long:"id" required:"true" description:"job id"`
	Name    string `short:"N" long:"name" required:"true" description:"job name"`
	Script  string `short:"S" long:"script" description:"job script"`
	Dir     string `short:"D" long:"dir" description:"job directory, default current"`
	Comment string `short:"C" long:"comment" description:"comment"`
	Status  string `short:"T" long:"status" description:"initial status"`
}

func (c *addCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}

	dir := c.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("can't get working directory: %w", err)
		}
	}
	if _, err = tbl.Add(c.ID, c.Name, dir, c.Script); err != nil {
		return fmt.Errorf("can't add job %d: %w", c.ID, err)
	}
	if c.Status != "" || c.Comment != "" {
		if err = tbl.SetStatus(c.ID, c.Status, c.Comment, false); err != nil {
			return err
		}
	}
	if err = st.Save(&tbl); err != nil {
		return err
	}
	log.Printf("[INFO] added job %d (%s)", c.ID, c.Name)
	return nil
}

// delCommand removes jobs by id. Ids not present are ignored.
type delCommand struct {
	IDs []int `short:"I" long:"id" required:"true" description:"job id, can be repeated"`
}

func (c *delCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}
	for _, id := range c.IDs {
		tbl.Delete(id)
	}
	if err = st.Save(&tbl); err != nil {
		return err
	}
	log.Printf("[INFO] deleted %d job(s)", len(c.IDs))
	return nil
}

// modCommand sets a single field of a job.
type modCommand struct {
	ID    int    `short:"I" long:"id" required:"true" description:"job id"`
	Key   string `short:"k" long:"key" required:"true" description:"column name"`
	Value string `short:"v" long:"value" required:"true" description:"new value"`
}

func (c *modCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}
	col, err := table.ParseColumn(c.Key)
	if err != nil {
		return err
	}
	if _, err = tbl.SetField(c.ID, col, c.Value, true); err != nil {
		return fmt.Errorf("can't set %s for job %d: %w", c.Key, c.ID, err)
	}
	return st.Save(&tbl)
}

// showCommand prints the selected jobs, or fails if any id is missing.
type showCommand struct {
	IDs []int `short:"I" long:"id" required:"true" description:"job id, can be repeated"`
}

func (c *showCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return err
	}
	for _, id := range c.IDs {
		if !tbl.Exists(id) {
			return fmt.Errorf("no job with id %d in table: %w", id, table.ErrNotFound)
		}
	}
	sel := tbl.Select(c.IDs...)
	renderTable(os.Stdout, &sel, true)
	return nil
}

type showAllCommand struct{}

func (c *showAllCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return err
	}
	renderTable(os.Stdout, &tbl, false)
	return nil
}

type showUnfinishedCommand struct{}

func (c *showUnfinishedCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return err
	}
	unchecked := tbl.Unchecked()
	renderTable(os.Stdout, &unchecked, false)
	return nil
}

// filterCommand prints jobs whose column matches the given value.
type filterCommand struct {
	Key   string `short:"k" long:"key" required:"true" description:"column name"`
	Value string `short:"v" long:"value" required:"true" description:"value to match"`
}

func (c *filterCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return err
	}
	col, err := table.ParseColumn(c.Key)
	if err != nil {
		return err
	}
	matched, err := tbl.Filter(col, c.Value)
	if err != nil {
		return err
	}
	renderTable(os.Stdout, &matched, false)
	return nil
}

// sortCommand prints the table ordered by a column. With -s the sorted
// order is also written back to the table file.
type sortCommand struct {
	Key  string `short:"k" long:"key" required:"true" description:"column name"`
	Desc bool   `short:"d" long:"desc" description:"sort in descending order"`
	Save bool   `short:"s" long:"save" description:"persist the sorted order"`
}

func (c *sortCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}
	col, err := table.ParseColumn(c.Key)
	if err != nil {
		return err
	}
	sorted := tbl.Sort(col, c.Desc)
	renderTable(os.Stdout, &sorted, false)
	if c.Save {
		return st.Save(&sorted)
	}
	return nil
}

type printDirCommand struct {
	ID int `short:"I" long:"id" required:"true" description:"job id"`
}

func (c *printDirCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, _, err := loadTable(cfg)
	if err != nil {
		return err
	}
	fmt.Println(tbl.Directory(c.ID))
	return nil
}

// setOkCommand marks jobs as finished successfully.
type setOkCommand struct {
	IDs     []int  `short:"I" long:"id" required:"true" description:"job id, can be repeated"`
	Comment string `short:"C" long:"comment" description:"comment to append"`
}

func (c *setOkCommand) Execute(_ []string) error {
	return setStatusAll(c.IDs, "OK", c.Comment)
}

// setFailCommand marks jobs as finished with failure.
type setFailCommand struct {
	IDs     []int  `short:"I" long:"id" required:"true" description:"job id, can be repeated"`
	Comment string `short:"C" long:"comment" description:"comment to append"`
}

func (c *setFailCommand) Execute(_ []string) error {
	return setStatusAll(c.IDs, "FAILED", c.Comment)
}

func setStatusAll(ids []int, status, comment string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err = tbl.SetStatus(id, status, comment, true); err != nil {
			return fmt.Errorf("can't set status for job %d: %w", id, err)
		}
	}
	if err = st.Save(&tbl); err != nil {
		return err
	}
	log.Printf("[INFO] set status %q on %d job(s)", status, len(ids))
	return nil
}

// updateIDCommand replaces a job id, e.g. after a requeue.
type updateIDCommand struct {
	ID    int `short:"I" long:"id" required:"true" description:"current job id"`
	Value int `short:"v" long:"value" required:"true" description:"new job id"`
}

func (c *updateIDCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}
	if _, err = tbl.SetField(c.ID, table.ColID, fmt.Sprintf("%d", c.Value), true); err != nil {
		return fmt.Errorf("can't update id %d: %w", c.ID, err)
	}
	return st.Save(&tbl)
}

// checkCommand runs a reconcile pass: queries the queue status command and
// updates unchecked jobs from its output.
type checkCommand struct {
	Timeout time.Duration `long:"timeout" default:"1m" description:"status command timeout"`
}

func (c *checkCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}

	if cfg.Guard.Enabled() {
		if ok, reason := conditions.Check(cfg.Guard); !ok {
			fmt.Printf("check skipped: %s\n", reason)
			log.Printf("[WARN] check skipped: %s", reason)
			return nil
		}
	}

	tbl, st, err := loadTable(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	notifier := notify.New(notify.Params{Host: cfg.Notify.Host, Port: cfg.Notify.Port,
		TLS: cfg.Notify.TLS, Username: cfg.Notify.Username, Password: cfg.Notify.Password,
		TimeOut: cfg.Notify.TimeOut, From: cfg.Notify.From, To: cfg.Notify.To,
		OnAssumed: cfg.Notify.OnAssumed, OnError: cfg.Notify.OnError})

	updated, sum, err := reconcile.Run(ctx, &tbl, &query.Runner{CmdFile: cfg.CommandFile})
	recordPass(cfg.HistoryFile, sum, err)
	if err != nil {
		if notifier.IsOnError() {
			if nerr := notifier.SendError(ctx, err.Error()); nerr != nil {
				log.Printf("[WARN] can't send error notification: %v", nerr)
			}
		}
		return fmt.Errorf("reconcile pass failed: %w", err)
	}

	if err = st.Save(&updated); err != nil {
		return err
	}
	if len(sum.AssumedIDs) > 0 && notifier.IsOnAssumed() {
		if nerr := notifier.SendAssumed(ctx, sum.AssumedIDs); nerr != nil {
			log.Printf("[WARN] can't send notification: %v", nerr)
		}
	}
	fmt.Printf("checked %d line(s), matched %d, assumed finished %d\n",
		sum.Lines, sum.Matched, len(sum.AssumedIDs))
	return nil
}

// recordPass appends the pass outcome to the history db. History failures
// are logged but never fail the check itself.
func recordPass(path string, sum reconcile.Summary, runErr error) {
	if path == "" {
		return
	}
	hist, err := store.NewHistory(path)
	if err != nil {
		log.Printf("[WARN] can't open history db %s: %v", path, err)
		return
	}
	defer hist.Close()

	started, finished := sum.Started, sum.Finished
	if started.IsZero() {
		started = time.Now()
	}
	if finished.IsZero() {
		finished = time.Now()
	}
	pass := store.Pass{StartedAt: started.Unix(), FinishedAt: finished.Unix(),
		Lines: sum.Lines, Matched: sum.Matched, Assumed: len(sum.AssumedIDs)}
	if runErr != nil {
		pass.Error = runErr.Error()
	}
	if err = hist.Record(pass); err != nil {
		log.Printf("[WARN] can't record pass: %v", err)
	}
}

// historyCommand prints recent reconcile passes from the history db.
type historyCommand struct {
	Limit int `short:"n" long:"limit" default:"10" description:"number of passes to show"`
}

func (c *historyCommand) Execute(_ []string) error {
	cfg, err := preflight()
	if err != nil {
		return err
	}
	if cfg.HistoryFile == "" {
		return fmt.Errorf("history is disabled, set history_file in the config")
	}
	hist, err := store.NewHistory(cfg.HistoryFile)
	if err != nil {
		return fmt.Errorf("can't open history db %s: %w", cfg.HistoryFile, err)
	}
	defer hist.Close()

	passes, err := hist.Recent(c.Limit)
	if err != nil {
		return err
	}
	renderPasses(os.Stdout, passes)
	return nil
}
