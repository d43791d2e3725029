package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/calendar-api/internal/models"
)

func runActor(t *testing.T, authorization string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/holidays", nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req
	Actor()(c)
	return c
}

func TestActorExtractsSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin-1"}).
		SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	c := runActor(t, "Bearer "+token)
	require.Equal(t, "admin-1", ActorID(c))
}

func TestActorFallsBackToSystem(t *testing.T) {
	require.Equal(t, models.SystemActorID, ActorID(runActor(t, "")))
	require.Equal(t, models.SystemActorID, ActorID(runActor(t, "Bearer not-a-token")))
	require.Equal(t, models.SystemActorID, ActorID(runActor(t, "Basic abc")))
}
