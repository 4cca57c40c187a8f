package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/config"
	httptransport "github.com/example/clinic-ops/internal/http"
	"github.com/example/clinic-ops/internal/logging"
	"github.com/example/clinic-ops/internal/persistence"
	"github.com/example/clinic-ops/internal/persistence/sqlite"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Bootstrap(context.Background()); err != nil {
		logger.Error("failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	idGenerator := func() string { return randomHex(16) }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	appointmentGateway := newAppointmentGatewayAdapter(sqlite.NewAppointmentRepository(pool))
	roomStore := newRoomStoreAdapter(sqlite.NewRoomRepository(pool))
	clientStore := newClientStoreAdapter(sqlite.NewClientRepository(pool))
	rosterStore := newRosterStoreAdapter(sqlite.NewRosterRepository(pool))
	bedStore := newBedStoreAdapter(sqlite.NewBedRepository(pool))
	stockStore := newStockStoreAdapter(sqlite.NewStockRepository(pool))
	userRepo := sqlite.NewUserRepository(pool)
	credentialStore := newCredentialStoreAdapter(userRepo, idGenerator, now)
	sessionStore := newSessionStoreAdapter(sqlite.NewSessionRepository(pool))

	if err := seedAdminUser(context.Background(), userRepo, cfg, idGenerator, now, logger); err != nil {
		logger.Error("failed to seed administrator account", "error", err)
		os.Exit(1)
	}

	availability := application.NewAvailabilityIndex(rosterStore, now, cfg.RosterCacheTTL)

	engine := application.NewSchedulingEngineWithLogger(appointmentGateway, roomStore, clientStore, availability, idGenerator, now, logger)
	engine.SetBookingWindowDays(cfg.BookingWindowDays)

	roomService := application.NewRoomServiceWithLogger(roomStore, idGenerator, now, logger)
	clientService := application.NewClientServiceWithLogger(clientStore, idGenerator, now, logger)
	rosterService := application.NewRosterServiceWithLogger(rosterStore, availability, logger)
	bedService := application.NewBedServiceWithLogger(bedStore, clientStore, idGenerator, now, logger)
	stockService := application.NewStockServiceWithLogger(stockStore, idGenerator, now, logger)
	reportService := application.NewReportServiceWithLogger(engine, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionStore, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	metrics := httptransport.NewMetrics()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Schedule: httptransport.NewScheduleHandler(engine, logger),
		Rooms:    httptransport.NewRoomHandler(roomService, logger),
		Clients:  httptransport.NewClientHandler(clientService, logger),
		Roster:   httptransport.NewRosterHandler(rosterService, logger),
		Beds:     httptransport.NewBedHandler(bedService, logger),
		Stock:    httptransport.NewStockHandler(stockService, logger),
		Reports:  httptransport.NewReportHandler(reportService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	metricsHandler := metrics.Handler()
	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.EqualFold(r.URL.Path, "/login"):
			router.ServeHTTP(w, r)
		case strings.EqualFold(r.URL.Path, "/metrics"):
			metricsHandler.ServeHTTP(w, r)
		default:
			protected.ServeHTTP(w, r)
		}
	})
	handler := httptransport.RequestLogger(logger)(metrics.Middleware()(dispatch))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("clinic API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// seedAdminUser creates the configured administrator account on first start so
// a fresh database is immediately usable. An existing account wins; the
// configured password is not re-applied over it.
func seedAdminUser(ctx context.Context, users persistence.UserRepository, cfg config.Config, idGenerator func() string, now func() time.Time, logger *slog.Logger) error {
	email := strings.TrimSpace(strings.ToLower(cfg.AdminEmail))
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	hash, err := application.HashPassword(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	ts := now().UTC()
	user := persistence.User{
		ID:           idGenerator(),
		Email:        email,
		DisplayName:  "Administrator",
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return err
	}
	logger.Info("administrator account seeded", "email", email)
	return nil
}

type appointmentGatewayAdapter struct {
	repo persistence.AppointmentRepository
}

func newAppointmentGatewayAdapter(repo persistence.AppointmentRepository) *appointmentGatewayAdapter {
	return &appointmentGatewayAdapter{repo: repo}
}

func (a *appointmentGatewayAdapter) ListByDay(ctx context.Context, roomID string, date calendar.Date) ([]application.Appointment, error) {
	docs, err := a.repo.ListByDay(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	appts := make([]application.Appointment, 0, len(docs))
	for _, doc := range docs {
		appts = append(appts, toApplicationAppointment(doc))
	}
	return appts, nil
}

func (a *appointmentGatewayAdapter) Get(ctx context.Context, roomID string, date calendar.Date, id string) (application.Appointment, error) {
	doc, err := a.repo.Get(ctx, roomID, date, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return toApplicationAppointment(doc), nil
}

func (a *appointmentGatewayAdapter) Upsert(ctx context.Context, appt application.Appointment) (string, error) {
	return a.repo.Upsert(ctx, toPersistenceAppointment(appt))
}

func (a *appointmentGatewayAdapter) Delete(ctx context.Context, roomID string, date calendar.Date, id string) error {
	return a.repo.Delete(ctx, roomID, date, id)
}

type roomStoreAdapter struct {
	repo persistence.RoomRepository
}

func newRoomStoreAdapter(repo persistence.RoomRepository) *roomStoreAdapter {
	return &roomStoreAdapter{repo: repo}
}

func (a *roomStoreAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomStoreAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomStoreAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomStoreAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type clientStoreAdapter struct {
	repo persistence.ClientRepository
}

func newClientStoreAdapter(repo persistence.ClientRepository) *clientStoreAdapter {
	return &clientStoreAdapter{repo: repo}
}

func (a *clientStoreAdapter) CreateClient(ctx context.Context, client application.Client) (application.Client, error) {
	if err := a.repo.CreateClient(ctx, toPersistenceClient(client)); err != nil {
		return application.Client{}, err
	}
	stored, err := a.repo.GetClient(ctx, client.ID)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientStoreAdapter) UpdateClient(ctx context.Context, client application.Client) (application.Client, error) {
	if err := a.repo.UpdateClient(ctx, toPersistenceClient(client)); err != nil {
		return application.Client{}, err
	}
	stored, err := a.repo.GetClient(ctx, client.ID)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientStoreAdapter) GetClient(ctx context.Context, id string) (application.Client, error) {
	stored, err := a.repo.GetClient(ctx, id)
	if err != nil {
		return application.Client{}, err
	}
	return toApplicationClient(stored), nil
}

func (a *clientStoreAdapter) ListClients(ctx context.Context) ([]application.Client, error) {
	models, err := a.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	clients := make([]application.Client, 0, len(models))
	for _, model := range models {
		clients = append(clients, toApplicationClient(model))
	}
	return clients, nil
}

type rosterStoreAdapter struct {
	repo persistence.RosterRepository
}

func newRosterStoreAdapter(repo persistence.RosterRepository) *rosterStoreAdapter {
	return &rosterStoreAdapter{repo: repo}
}

func (a *rosterStoreAdapter) ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error) {
	return a.repo.ListOnDuty(ctx, date)
}

func (a *rosterStoreAdapter) SetDuty(ctx context.Context, date calendar.Date, doctor string, onDuty bool) error {
	return a.repo.SetDuty(ctx, persistence.DutyEntry{Date: date, Doctor: doctor}, onDuty)
}

type bedStoreAdapter struct {
	repo persistence.BedRepository
}

func newBedStoreAdapter(repo persistence.BedRepository) *bedStoreAdapter {
	return &bedStoreAdapter{repo: repo}
}

func (a *bedStoreAdapter) CreateBed(ctx context.Context, bed application.Bed) (application.Bed, error) {
	if err := a.repo.CreateBed(ctx, toPersistenceBed(bed)); err != nil {
		return application.Bed{}, err
	}
	stored, err := a.repo.GetBed(ctx, bed.ID)
	if err != nil {
		return application.Bed{}, err
	}
	return toApplicationBed(stored), nil
}

func (a *bedStoreAdapter) UpdateBed(ctx context.Context, bed application.Bed) (application.Bed, error) {
	if err := a.repo.UpdateBed(ctx, toPersistenceBed(bed)); err != nil {
		return application.Bed{}, err
	}
	stored, err := a.repo.GetBed(ctx, bed.ID)
	if err != nil {
		return application.Bed{}, err
	}
	return toApplicationBed(stored), nil
}

func (a *bedStoreAdapter) GetBed(ctx context.Context, id string) (application.Bed, error) {
	stored, err := a.repo.GetBed(ctx, id)
	if err != nil {
		return application.Bed{}, err
	}
	return toApplicationBed(stored), nil
}

func (a *bedStoreAdapter) ListBeds(ctx context.Context) ([]application.Bed, error) {
	models, err := a.repo.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	beds := make([]application.Bed, 0, len(models))
	for _, model := range models {
		beds = append(beds, toApplicationBed(model))
	}
	return beds, nil
}

type stockStoreAdapter struct {
	repo persistence.StockRepository
}

func newStockStoreAdapter(repo persistence.StockRepository) *stockStoreAdapter {
	return &stockStoreAdapter{repo: repo}
}

func (a *stockStoreAdapter) CreateItem(ctx context.Context, item application.StockItem) (application.StockItem, error) {
	if err := a.repo.CreateItem(ctx, toPersistenceStockItem(item)); err != nil {
		return application.StockItem{}, err
	}
	stored, err := a.repo.GetItem(ctx, item.ID)
	if err != nil {
		return application.StockItem{}, err
	}
	return toApplicationStockItem(stored), nil
}

func (a *stockStoreAdapter) UpdateItem(ctx context.Context, item application.StockItem) (application.StockItem, error) {
	if err := a.repo.UpdateItem(ctx, toPersistenceStockItem(item)); err != nil {
		return application.StockItem{}, err
	}
	stored, err := a.repo.GetItem(ctx, item.ID)
	if err != nil {
		return application.StockItem{}, err
	}
	return toApplicationStockItem(stored), nil
}

func (a *stockStoreAdapter) GetItem(ctx context.Context, id string) (application.StockItem, error) {
	stored, err := a.repo.GetItem(ctx, id)
	if err != nil {
		return application.StockItem{}, err
	}
	return toApplicationStockItem(stored), nil
}

func (a *stockStoreAdapter) ListItems(ctx context.Context) ([]application.StockItem, error) {
	models, err := a.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	items := make([]application.StockItem, 0, len(models))
	for _, model := range models {
		items = append(items, toApplicationStockItem(model))
	}
	return items, nil
}

func (a *stockStoreAdapter) DeleteItem(ctx context.Context, id string) error {
	return a.repo.DeleteItem(ctx, id)
}

type credentialStoreAdapter struct {
	repo        persistence.UserRepository
	idGenerator func() string
	now         func() time.Time
}

func newCredentialStoreAdapter(repo persistence.UserRepository, idGenerator func() string, now func() time.Time) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo, idGenerator: idGenerator, now: now}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if user.ID == "" {
		user.ID = a.idGenerator()
	}
	ts := a.now().UTC()
	model := persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationAppointment(doc persistence.AppointmentDoc) application.Appointment {
	return application.Appointment{
		ID:         doc.ID,
		RoomID:     doc.RoomID,
		Date:       doc.Date,
		StartTime:  doc.StartTime,
		EndTime:    doc.EndTime,
		ClientName: doc.ClientName,
		ClientID:   doc.ClientID,
		Procedure:  doc.Procedure,
		Doctor:     doc.Doctor,
		State:      application.StateCommitted,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toPersistenceAppointment(appt application.Appointment) persistence.AppointmentDoc {
	return persistence.AppointmentDoc{
		ID:         appt.ID,
		RoomID:     appt.RoomID,
		Date:       appt.Date,
		StartTime:  appt.StartTime,
		EndTime:    appt.EndTime,
		ClientName: appt.ClientName,
		ClientID:   appt.ClientID,
		Procedure:  appt.Procedure,
		Doctor:     appt.Doctor,
		CreatedAt:  appt.CreatedAt,
		UpdatedAt:  appt.UpdatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationClient(model persistence.Client) application.Client {
	return application.Client{
		ID:          model.ID,
		DisplayName: model.DisplayName,
		Phone:       model.Phone,
		Email:       model.Email,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceClient(client application.Client) persistence.Client {
	return persistence.Client{
		ID:          client.ID,
		DisplayName: client.DisplayName,
		Phone:       client.Phone,
		Email:       client.Email,
		CreatedAt:   client.CreatedAt,
		UpdatedAt:   client.UpdatedAt,
	}
}

func toApplicationBed(model persistence.Bed) application.Bed {
	return application.Bed{
		ID:        model.ID,
		Ward:      model.Ward,
		Label:     model.Label,
		ClientID:  model.ClientID,
		Occupied:  model.Occupied,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceBed(bed application.Bed) persistence.Bed {
	return persistence.Bed{
		ID:        bed.ID,
		Ward:      bed.Ward,
		Label:     bed.Label,
		ClientID:  bed.ClientID,
		Occupied:  bed.Occupied,
		CreatedAt: bed.CreatedAt,
		UpdatedAt: bed.UpdatedAt,
	}
}

func toApplicationStockItem(model persistence.StockItem) application.StockItem {
	return application.StockItem{
		ID:        model.ID,
		Name:      model.Name,
		Quantity:  model.Quantity,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceStockItem(item application.StockItem) persistence.StockItem {
	return persistence.StockItem{
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
