package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/operators", Operators)
		r.Post("/evaluate", a.Evaluate)

		r.Post("/sessions", a.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", a.GetSession)
			r.Delete("/", a.DeleteSession)
			r.Post("/numbers", a.PushNumber)
			r.Post("/variables", a.PushVariable)
			r.Put("/variables/{name}", a.BindVariable)
			r.Post("/operators", a.PushOperator)
			r.Post("/undo", a.Undo)
			r.Post("/clear", a.Clear)
			r.Get("/plot", a.Plot)
		})
	})
}
