package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hydro-advisor/internal/core/account"
	"hydro-advisor/internal/core/disease"
	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/queue"
	"hydro-advisor/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func f(v float64) *float64 { return &v }

type stubClassifier struct {
	pred disease.Prediction
}

func (s stubClassifier) Classify(context.Context, *disease.Tensor) (disease.Prediction, error) {
	return s.pred, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Debug: true, Version: "test"},
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowOrigins:   []string{"*"},
		},
		Session: config.SessionConfig{CookieName: "hydro_session", TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, diseaseSvc *disease.Service) *gin.Engine {
	t.Helper()
	ds := plant.NewDataset([]plant.Record{
		{Name: "Tomato (Solanum lycopersicum)", TempC: f(25), PH: f(6.0), Humidity: f(70), NutrientPPM: f(500)},
		{Name: "Basil", TempC: f(24), PH: f(6.2), Humidity: f(60), NutrientPPM: nil},
	})
	router, err := SetupRouter(testConfig(), Deps{
		Dataset:  ds,
		Disease:  diseaseSvc,
		Accounts: account.NewService(account.NewMemoryStore(), bcrypt.MinCost),
		Sessions: account.NewSessions("test-secret", time.Hour),
	})
	require.NoError(t, err)
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPredictSuggestions(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{
		"plant_name":    "tomato",
		"temperature_c": 30,
		"ph":            6.0,
		"humidity_pct":  70,
		"nutrient_ppm":  500,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "tomato", body["plant_name"])
	assert.Equal(t, "Tomato (Solanum lycopersicum)", body["matched_name"])
	assert.Equal(t, 25.0, body["optimal"].(map[string]interface{})["optimal_temp_c"])

	suggestions := body["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)
	assert.Equal(t, "🌡️ Decrease temperature by 5.0°C", suggestions[0].(map[string]interface{})["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPredictWithoutReadingsOmitsSuggestions(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "Basil"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	_, has := body["suggestions"]
	assert.False(t, has)
	assert.Nil(t, body["optimal"].(map[string]interface{})["optimal_nutrient_ppm"])

	// 明確送出的 0 算作讀數
	w = doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "Basil", "ph": 0}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["suggestions"])
}

func TestPredictForm(t *testing.T) {
	router := newTestRouter(t, nil)

	form := url.Values{
		"plant_name":  {"Tomato"},
		"temperature": {"25"},
		"ph":          {"6"},
		"humidity":    {"70"},
		"nutrient":    {"500"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict?lang=hi", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	suggestions := decode(t, w)["suggestions"].([]interface{})
	require.Len(t, suggestions, 1)
	assert.Equal(t, "✅ परिस्थितियाँ आदर्श हैं!", suggestions[0].(map[string]interface{})["message"])
}

func TestPredictErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a plant name.", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "Cactus"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Plant 'Cactus' not found.", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "Basil", "ph": "acidic"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Please enter numeric values for all parameters.", body["error"])
	assert.Contains(t, body["details"], "ph")

	w = doJSON(router, http.MethodPost, "/api/v1/predict", map[string]interface{}{"plant_name": "Basil", "ph": "acidic"},
		http.Header{"Accept-Language": {"te-IN,en;q=0.8"}})
	assert.Equal(t, "అన్ని విలువలకు సంఖ్యా విలువలు ఇవ్వండి.", decode(t, w)["error"])
}

func TestPlantsAndChat(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/plants", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["count"])

	w = doJSON(router, http.MethodPost, "/api/v1/chat", map[string]string{"message": "Hello there"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, body["response"], body["reply"])
	assert.Equal(t, "greeting", body["intent"])

	w = doJSON(router, http.MethodPost, "/api/v1/chat", map[string]string{"message": "my leaves have white powder"}, nil)
	assert.Equal(t, "symptom", decode(t, w)["intent"])

	w = doJSON(router, http.MethodPost, "/api/v1/chat", map[string]string{"message": "basil"}, nil)
	body = decode(t, w)
	assert.Equal(t, "plant", body["intent"])
	assert.Contains(t, body["reply"], "Basil")
}

func uploadImage(t *testing.T, router http.Handler, field string) *httptest.ResponseRecorder {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "leaf.png")
	require.NoError(t, err)
	_, _ = part.Write(pngBuf.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/disease-predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDiseasePredict(t *testing.T) {
	q := queue.NewManager(1, 2)
	defer q.Close()
	svc := disease.NewService(stubClassifier{pred: disease.Prediction{Disease: disease.LabelRust, Confidence: 97.5}}, nil, q, time.Second)
	router := newTestRouter(t, svc)

	w := uploadImage(t, router, "file")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Rust", body["disease"])
	assert.Equal(t, 97.5, body["confidence"])

	w = uploadImage(t, router, "photo")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decode(t, w)["error"])

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBuf.Bytes())

	w = doJSON(router, http.MethodPost, "/api/v1/disease-predict", map[string]string{"image": dataURI}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Rust", decode(t, w)["disease"])

	w = doJSON(router, http.MethodPost, "/api/v1/disease-predict", map[string]string{"image": "data:image/png;base64,bm90IGFuIGltYWdl"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDiseasePredictDisabled(t *testing.T) {
	router := newTestRouter(t, nil)
	w := uploadImage(t, router, "file")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "hydro_session" {
			return c
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	creds := map[string]string{"email": "grower@example.com", "password": "pw", "name": "Asha"}

	w := doJSON(router, http.MethodPost, "/api/v1/register", creds, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/v1/register", creds, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/v1/register", map[string]string{"email": "grower2@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Email and password are required", body["error"])
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	w = doJSON(router, http.MethodPost, "/api/v1/login", map[string]string{"email": "grower@example.com", "password": "nope"},
		http.Header{"Accept-Language": {"hi"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "अमान्य विवरण", decode(t, w)["error"])

	w = doJSON(router, http.MethodGet, "/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/login", creds, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = doJSON(router, http.MethodGet, "/api/v1/me", nil, http.Header{"Cookie": {cookie.Name + "=" + cookie.Value}})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "grower@example.com", body["username"])
	assert.Equal(t, "Asha", body["name"])

	w = doJSON(router, http.MethodPost, "/api/v1/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["plants"])

	w = doJSON(router, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouterRequiresDeps(t *testing.T) {
	_, err := SetupRouter(testConfig(), Deps{})
	assert.Error(t, err)
}
