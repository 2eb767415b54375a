package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"tenant-chat/internal/activity"
	"tenant-chat/internal/auth"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/config"
	"tenant-chat/internal/dispatch"
	"tenant-chat/internal/metrics"
	"tenant-chat/internal/notify"
	"tenant-chat/internal/storage"
)

type API struct {
	Storage    *storage.Storage
	Resolver   *channel.Resolver
	Activity   *activity.Service
	Sink       notify.Sink
	Dispatcher *dispatch.Dispatcher
	Cfg        *config.Config
}

func NewAPI(db *storage.Storage, resolver *channel.Resolver, act *activity.Service, sink notify.Sink, dispatcher *dispatch.Dispatcher, cfg *config.Config) *API {
	return &API{
		Storage:    db,
		Resolver:   resolver,
		Activity:   act,
		Sink:       sink,
		Dispatcher: dispatcher,
		Cfg:        cfg,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	// Public
	r.Post("/tenants", a.CreateTenant)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Secured
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireTenant(a.Storage))

		r.Delete("/tenants", a.DeleteTenant)
		r.Put("/tenants/config/dispatch", a.UpdateDispatchWorkers)

		r.Post("/customers", a.CreateCustomer)
		r.Get("/customers", a.FindCustomerByEmail)
		r.Delete("/customers/{id}", a.DeleteCustomer)

		r.Post("/channels", a.ResolveChannel)
		r.Get("/channels", a.ListChannels)
		r.Post("/channels/{id}/messages", a.AppendMessage)
		r.Get("/channels/{id}/messages", a.ListMessages)
		r.Post("/channels/{id}/typing", a.Typing)
	})

	return r
}
