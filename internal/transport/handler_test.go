package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-receipt-capture/internal/capture"
	"go-receipt-capture/internal/config"
	"go-receipt-capture/internal/duplicate"
	"go-receipt-capture/internal/service"
	"go-receipt-capture/internal/storage"
	"go-receipt-capture/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler() (http.Handler, *storage.MemoryQueue) {
	queue := storage.NewMemoryQueue()
	controller := capture.NewController(capture.Config{
		Resolver: duplicate.NewResolver(duplicate.NewHashCache(8), duplicate.NewDisabledChecker(), time.Second),
		Queue:    queue,
	})
	cfg := &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 20 << 20,
	}
	return NewHandler(service.NewCaptureService(controller), cfg), queue
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 80; x++ {
			v := uint8((x*3 + y) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func multipartCapture(t *testing.T, imageBytes []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if imageBytes != nil {
		part, err := writer.CreateFormFile("image", "receipt.png")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(imageBytes); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postCapture(t *testing.T, handler http.Handler, imageBytes []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartCapture(t, imageBytes, fields)
	req := httptest.NewRequest(http.MethodPost, "/v1/captures", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeCaptureResult(t *testing.T, w *httptest.ResponseRecorder) models.CaptureResult {
	t.Helper()
	var result models.CaptureResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return result
}

func TestHealthCheck(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestAnalyzeFrame(t *testing.T) {
	handler, _ := newTestHandler()

	w, h := 32, 32
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = 140
	}
	body, err := json.Marshal(models.FrameAnalysisRequest{Width: w, Height: h, Pixels: pix})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/frames/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var guidance models.LiveGuidance
	if err := json.Unmarshal(rec.Body.Bytes(), &guidance); err != nil {
		t.Fatalf("Failed to decode guidance: %v", err)
	}
	if guidance.Glare.Guidance == "" {
		t.Error("Expected glare guidance in response")
	}
}

func TestAnalyzeFrameShortBuffer(t *testing.T) {
	handler, _ := newTestHandler()

	body, err := json.Marshal(models.FrameAnalysisRequest{Width: 32, Height: 32, Pixels: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/frames/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateCaptureAccepted(t *testing.T) {
	handler, queue := newTestHandler()

	w := postCapture(t, handler, testPNG(t), map[string]string{
		"merchant": "Corner Mart",
		"amount":   "5.75",
		"date":     "2026-03-14",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decodeCaptureResult(t, w)
	if result.State != models.StateAccepted {
		t.Errorf("Expected state %s, got %s", models.StateAccepted, result.State)
	}
	if result.ID == "" {
		t.Error("Expected a capture id")
	}
	if queue.Len() != 1 {
		t.Errorf("Expected 1 queued upload, got %d", queue.Len())
	}
}

func TestCreateCaptureMissingFile(t *testing.T) {
	handler, _ := newTestHandler()

	w := postCapture(t, handler, nil, map[string]string{"merchant": "Corner Mart"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateCaptureBadAmount(t *testing.T) {
	handler, _ := newTestHandler()

	w := postCapture(t, handler, testPNG(t), map[string]string{"amount": "lots"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateCaptureUndecodable(t *testing.T) {
	handler, _ := newTestHandler()

	w := postCapture(t, handler, []byte("not an image"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decodeCaptureResult(t, w)
	if result.State != models.StateRejected {
		t.Errorf("Expected state %s, got %s", models.StateRejected, result.State)
	}
}

func TestResolveCaptureFlow(t *testing.T) {
	handler, queue := newTestHandler()
	still := testPNG(t)

	first := decodeCaptureResult(t, postCapture(t, handler, still, nil))
	if first.State != models.StateAccepted {
		t.Fatalf("Expected first capture accepted, got %s", first.State)
	}

	second := decodeCaptureResult(t, postCapture(t, handler, still, nil))
	if second.State != models.StateDuplicateFlagged {
		t.Fatalf("Expected second capture flagged, got %s", second.State)
	}
	if second.Duplicate == nil || second.Duplicate.ExistingReceiptID != first.ID {
		t.Fatalf("Expected duplicate of %s, got %+v", first.ID, second.Duplicate)
	}

	body, _ := json.Marshal(models.ResolveDuplicateRequest{Keep: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/captures/"+second.ID+"/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resolved := decodeCaptureResult(t, rec)
	if resolved.State != models.StateAccepted {
		t.Errorf("Expected resolved state %s, got %s", models.StateAccepted, resolved.State)
	}
	if queue.Len() != 2 {
		t.Errorf("Expected 2 queued uploads after keep, got %d", queue.Len())
	}
}

func TestResolveCaptureUnknownID(t *testing.T) {
	handler, _ := newTestHandler()

	body, _ := json.Marshal(models.ResolveDuplicateRequest{Keep: false})
	req := httptest.NewRequest(http.MethodPost, "/v1/captures/unknown/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
