package handlers

import (
	"net/http"

	"github.com/thushan/lmsgate/internal/util"
	"github.com/thushan/lmsgate/internal/version"
)

func (a *Application) versionHandler(w http.ResponseWriter, r *http.Request) {
	_ = util.WriteJSON(w, http.StatusOK, version.Current())
}
