/*
Package server exposes the recurrence expander to a date-picker front end over HTTP.

# Basic Usage

	engine := recurrence.NewEngine()
	defer engine.Close()

	srv, err := server.New(engine, memory.New(), "/api")
	if err != nil {
		log.Fatal(err)
	}
	http.Handle("/api/", srv)
	http.ListenAndServe(":8080", nil)

# URL Scheme

Paths are relative to the base URI:
  - POST /preview - expand a rule without saving it (?max=N, ?strict=1)
  - GET, POST /rules - list or save rules
  - GET, PUT, DELETE /rules/<id> - a saved rule
  - GET /rules/<id>/occurrences - its dates (?from=YYYY-MM-DD&to=YYYY-MM-DD)
  - GET /rules/<id>.ics - a VEVENT carrying the rule as RRULE

Rules are sent in the picker's flat JSON shape (see RuleConfig). POST and
PUT on rules also accept a text/calendar body with a single recurring VEVENT.

Occurrence lists are JSON by default; send Accept: application/xml for an
<occurrences> document or Accept: text/calendar for one all-day VEVENT per date.

# Authentication

Saved rules can be put behind HTTP Basic authentication:

	users := authmemory.New()
	users.AddUser("alice", "secret", auth.RoleEditor)

	srv, err := server.New(engine, store, "/api", server.WithAuthenticator(users, ""))

Previews and OPTIONS stay public. Viewers may read rules, editors may also
change them.

# Custom Storage Backend

To keep rules elsewhere, implement storage.Store:

	type Store interface {
		CreateRule(ctx context.Context, rec *Record) error
		GetRule(ctx context.Context, id string) (*Record, error)
		UpdateRule(ctx context.Context, rec *Record) error
		DeleteRule(ctx context.Context, id string) error
		ListRules(ctx context.Context) ([]*Record, error)
	}

Return *storage.Error values so the server can map them onto status codes.
*/
package server
