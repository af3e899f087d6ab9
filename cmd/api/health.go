package main

import "net/http"

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"env":     app.config.Env,
		"version": version,
		"store":   app.config.Store.Driver,
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		app.logger.Errorw("write health response", "error", err)
	}
}
