// Package notify delivers reconcile outcome emails: jobs presumed finished
// that want a human look, or a failed pass. Delivery goes through smtp with
// backoff retries.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// Params configures the email service.
type Params struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	TimeOut  time.Duration
	From     string
	To       []string

	OnAssumed bool // send when jobs flipped to the assumed-finished sentinel
	OnError   bool // send when the reconcile pass failed
}

// Sender delivers one message to a destination url.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Repeater retries a failing function.
type Repeater interface {
	Do(ctx context.Context, fun func() error, errs ...error) error
}

// Service sends reconcile outcome emails. A nil *Service is valid and sends
// nothing.
type Service struct {
	Params
	sender Sender
	rptr   Repeater
}

// New creates the email service. Returns nil when delivery is not configured
// (no host, no recipients or no trigger enabled).
func New(p Params) *Service {
	if p.Host == "" || len(p.To) == 0 || (!p.OnAssumed && !p.OnError) {
		return nil
	}
	if p.From == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		p.From = "trackjobs@" + host
	}
	if p.TimeOut == 0 {
		p.TimeOut = 10 * time.Second
	}

	sender := notify.NewEmail(notify.SMTPParams{
		Host:        p.Host,
		Port:        p.Port,
		TLS:         p.TLS,
		Username:    p.Username,
		Password:    p.Password,
		TimeOut:     p.TimeOut,
		ContentType: "text/html",
		Charset:     "UTF-8",
	})
	rptr := repeater.New(&strategy.Backoff{Repeats: 3, Duration: time.Second, Factor: 2})
	return &Service{Params: p, sender: sender, rptr: rptr}
}

// IsOnAssumed reports whether assumed-finished mails are enabled.
func (s *Service) IsOnAssumed() bool { return s != nil && s.OnAssumed }

// IsOnError reports whether failure mails are enabled.
func (s *Service) IsOnError() bool { return s != nil && s.OnError }

// SendAssumed mails the list of jobs that vanished from the queue output.
func (s *Service) SendAssumed(ctx context.Context, ids []int) error {
	if !s.IsOnAssumed() {
		return nil
	}
	msg, err := makeAssumedHTML(ids)
	if err != nil {
		return fmt.Errorf("can't make html email: %w", err)
	}
	subj := fmt.Sprintf("%d job(s) presumed finished on %s", len(ids), hostName())
	return s.send(ctx, subj, msg)
}

// SendError mails the reconcile failure.
func (s *Service) SendError(ctx context.Context, errMsg string) error {
	if !s.IsOnError() {
		return nil
	}
	msg, err := makeErrorHTML(errMsg)
	if err != nil {
		return fmt.Errorf("can't make html email: %w", err)
	}
	return s.send(ctx, "status check failed on "+hostName(), msg)
}

func (s *Service) send(ctx context.Context, subj, msg string) error {
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s",
		strings.Join(s.To, ","), url.QueryEscape(s.From), url.QueryEscape(subj))
	log.Printf("[DEBUG] send %q to %+v", subj, s.To)
	err := s.rptr.Do(ctx, func() error { return s.sender.Send(ctx, dest, msg) })
	if err != nil {
		return fmt.Errorf("failed to send %q: %w", subj, err)
	}
	return nil
}

var assumedTmpl = template.Must(template.New("assumed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial; font-size: 1.0em;">
	<p>Jobs gone from the queue on <b>{{.Host}}</b> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}, presumed finished:</p>
	<ul>{{range .IDs}}<li>job <b>{{.}}</b></li>{{end}}</ul>
	<p>Confirm with set-ok or set-fail.</p>
</body>
</html>
`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial; font-size: 1.0em;">
	<p>Status check failed on <b>{{.Host}}</b> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
	<pre style="background-color: #E8E2A0; padding: 0.6em; white-space: pre-wrap;">{{.Error}}</pre>
</body>
</html>
`))

func makeAssumedHTML(ids []int) (string, error) {
	data := struct {
		Host string
		TS   time.Time
		IDs  []int
	}{Host: hostName(), TS: time.Now(), IDs: ids}

	buf := bytes.Buffer{}
	if err := assumedTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func makeErrorHTML(errMsg string) (string, error) {
	data := struct {
		Host  string
		TS    time.Time
		Error string
	}{Host: hostName(), TS: time.Now(), Error: errMsg}

	buf := bytes.Buffer{}
	if err := errorTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func hostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
