package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Schedule   *ScheduleHandler
	Rooms      *RoomHandler
	Clients    *ClientHandler
	Roster     *RosterHandler
	Beds       *BedHandler
	Stock      *StockHandler
	Reports    *ReportHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Schedule != nil {
		mux.HandleFunc("/schedule/day", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Day(w, r)
		})
		mux.HandleFunc("/schedule/day/next", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.NextDay(w, r)
		})
		mux.HandleFunc("/schedule/day/prev", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.PrevDay(w, r)
		})
		mux.HandleFunc("/schedule/appointments", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.CreateDraft(w, r)
		})
		mux.HandleFunc("/schedule/appointments/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/schedule/appointments/")
			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithAppointmentID(r.Context(), id)
			r = r.WithContext(ctx)
			switch action {
			case "":
				switch r.Method {
				case http.MethodPatch:
					cfg.Schedule.FieldChange(w, r)
				case http.MethodDelete:
					cfg.Schedule.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
				}
			case "edit":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Schedule.BeginEdit(w, r)
			case "commit":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Schedule.Commit(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				cfg.Rooms.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/rooms/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithRoomID(r.Context(), id)
			r = r.WithContext(ctx)
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Rooms.Delete(w, r)
		})
	}

	if cfg.Clients != nil {
		mux.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Clients.List(w, r)
			case http.MethodPost:
				cfg.Clients.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/clients/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/clients/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithClientID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Clients.Get(w, r)
			case http.MethodPut:
				cfg.Clients.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	if cfg.Roster != nil {
		mux.HandleFunc("/roster", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Roster.List(w, r)
			case http.MethodPut:
				cfg.Roster.SetDuty(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	if cfg.Beds != nil {
		mux.HandleFunc("/beds", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Beds.List(w, r)
			case http.MethodPost:
				cfg.Beds.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/beds/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/beds/")
			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithBedID(r.Context(), id)
			r = r.WithContext(ctx)
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			switch action {
			case "assign":
				cfg.Beds.Assign(w, r)
			case "release":
				cfg.Beds.Release(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Stock != nil {
		mux.HandleFunc("/stock", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Stock.List(w, r)
			case http.MethodPost:
				cfg.Stock.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/stock/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/stock/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithItemID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodPut:
				cfg.Stock.Update(w, r)
			case http.MethodDelete:
				cfg.Stock.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reports != nil {
		mux.HandleFunc("/reports/day", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Day(w, r)
		})
		mux.HandleFunc("/reports/day/export", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Export(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
