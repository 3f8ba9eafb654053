package calsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Login runs the provider consent flow: it hands the consent URL to show,
// waits for the redirect on the local callback port, exchanges the code and
// stores the token in the session's token file.
func Login(ctx context.Context, session Session, show func(url string)) error {
	session = session.WithDefaults()
	if !session.Real() {
		return errors.New("login: provider client id is not configured")
	}
	cfg := session.OAuthConfig()
	state := "planner-" + uuid.NewString()

	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	report := func(r result) {
		select {
		case done <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintln(w, "This authorization link is not valid.")
			return
		}
		if e := q.Get("error"); e != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintln(w, "Authorization was denied:", e)
			report(result{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		tok, err := cfg.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintln(w, "Unable to retrieve token:", err)
			report(result{err: fmt.Errorf("exchange code: %w", err)})
			return
		}
		_, _ = fmt.Fprintln(w, "All good, you can close this window!")
		report(result{tok: tok})
	})

	ln, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(session.RedirectPort)))
	if err != nil {
		return fmt.Errorf("login: listen for redirect: %w", err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("login callback server", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	show(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("login: %w", res.err)
		}
		if err := session.saveToken(res.tok); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		return nil
	}
}
