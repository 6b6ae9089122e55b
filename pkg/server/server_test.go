package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/live"
	"github.com/matzehuels/synthroute/pkg/store"
)

const testDocument = `{
  "synth_graph": {
    "nodes": [
      {"node_label": "R1", "node_type": "reaction", "rxsmiles": "CO.O>>CCl"},
      {"node_label": "A", "node_type": "substance", "canonical_smiles": "CO"},
      {"node_label": "W", "node_type": "substance", "canonical_smiles": "O"},
      {"node_label": "B", "node_type": "substance", "canonical_smiles": "CCl"}
    ],
    "edges": [
      {"start_node": "A", "end_node": "R1", "edge_type": "reactant_of", "uuid": "e1"},
      {"start_node": "W", "end_node": "R1", "edge_type": "reagent_of", "uuid": "e2"},
      {"start_node": "R1", "end_node": "B", "edge_type": "product_of", "uuid": "e3"}
    ]
  },
  "routes": {"subgraphs": [{"route_index": 0, "route_node_labels": ["A", "R1", "B"]}]}
}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(nil, st, nil, nil)
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Hub.Close()
		ts.Close()
	})
	return s, ts
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var d detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	return d.Detail
}

func subscribe(t *testing.T, ts *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room_id=" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if msg := readMessage(t, conn); msg.Type != live.TypeNewRoom {
		t.Fatalf("first message = %+v", msg)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) live.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg live.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitSubscribers(t *testing.T, s *Server, roomID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Hub.Subscribers(roomID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no subscriber in room %s", roomID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["status"] != "OK" {
		t.Errorf("status = %d %v", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body = nil
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["message"] == "" {
		t.Error("root has no message")
	}
}

func TestElements(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/elements?skip_enrich=true&show_reagents=true", "application/json", strings.NewReader(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, decodeDetail(t, resp))
	}

	var body ElementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Elements.Nodes) != 4 || len(body.Elements.Edges) != 3 {
		t.Errorf("got %d nodes, %d edges", len(body.Elements.Nodes), len(body.Elements.Edges))
	}
	if !body.IsDAG || body.Format != "canonical" {
		t.Errorf("response = %+v", body)
	}
}

func TestElementsSubgraph(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/elements?skip_enrich=1&subgraph=0", "application/json", strings.NewReader(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body ElementsResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Elements.Nodes) != 3 {
		t.Errorf("route 0 has %d nodes", len(body.Elements.Nodes))
	}
}

func TestElementsErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"invalid json", "", "{oops", http.StatusBadRequest},
		{"empty body", "", "", http.StatusBadRequest},
		{"bad flag", "?skip_enrich=maybe", testDocument, http.StatusBadRequest},
		{"bad layout", "?layout=circle", testDocument, http.StatusBadRequest},
		{"bad subgraph", "?subgraph=7&skip_enrich=true", testDocument, http.StatusBadRequest},
		{"bad format", "?format=xml", testDocument, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/elements"+tt.query, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if decodeDetail(t, resp) == "" {
				t.Error("missing detail")
			}
		})
	}
}

func TestUploadRequiresSubscriber(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/upload_json_body?room_id=nobody", "application/json", strings.NewReader(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := decodeDetail(t, resp); got != "Invalid room ID: nobody" {
		t.Errorf("detail = %q", got)
	}

	resp, err = http.Post(ts.URL+"/upload_json_body?room_id=../etc", "application/json", strings.NewReader(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad room id status = %d", resp.StatusCode)
	}
}

func TestUploadBroadcastsAndStores(t *testing.T) {
	s, ts := newTestServer(t)
	conn := subscribe(t, ts, "lab")
	waitSubscribers(t, s, "lab")

	resp, err := http.Post(ts.URL+"/upload_json_body?room_id=lab", "application/json", strings.NewReader(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, decodeDetail(t, resp))
	}
	var up struct {
		Data        json.RawMessage `json:"data"`
		Subscribers int             `json:"subscribers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatal(err)
	}
	if up.Subscribers != 1 || !bytes.Contains(up.Data, []byte(`"synth_graph"`)) {
		t.Errorf("upload response = %s, %d", up.Data, up.Subscribers)
	}

	msg := readMessage(t, conn)
	if msg.Type != live.TypeNewGraph {
		t.Fatalf("message = %+v", msg)
	}
	doc, _, err := live.Decode(msg.Data, "")
	if err != nil || doc.NodeCount() != 4 {
		t.Errorf("broadcast document: %v", err)
	}

	get, err := http.Get(ts.URL + "/rooms/lab")
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	var room RoomResponse
	if err := json.NewDecoder(get.Body).Decode(&room); err != nil {
		t.Fatal(err)
	}
	if room.RoomID != "lab" || room.Subscribers != 1 || len(room.Data) == 0 {
		t.Errorf("room = %+v", room)
	}

	// late subscribers get the stored document
	late := subscribe(t, ts, "lab")
	if msg := readMessage(t, late); msg.Type != live.TypeNewGraph {
		t.Errorf("replay message = %+v", msg)
	}
}

func TestUploadFile(t *testing.T) {
	s, ts := newTestServer(t)
	subscribe(t, ts, "files")
	waitSubscribers(t, s, "files")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("room_id", "files")
	fw, _ := mw.CreateFormFile("file", "route.json")
	_, _ = fw.Write([]byte(testDocument))
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload_json_file", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, decodeDetail(t, resp))
	}

	resp, err = http.Post(ts.URL+"/upload_json_file", "text/plain", strings.NewReader("nope"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-multipart status = %d", resp.StatusCode)
	}
}

func TestRooms(t *testing.T) {
	s, ts := newTestServer(t)
	s.AllowEmptyRooms = true

	resp, err := http.Get(ts.URL + "/rooms/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing room status = %d", resp.StatusCode)
	}

	for _, id := range []string{"b", "a"} {
		resp, err := http.Post(ts.URL+"/upload_json_body?room_id="+id, "application/json", strings.NewReader(testDocument))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upload %s status = %d", id, resp.StatusCode)
		}
	}

	list, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var rooms map[string][]string
	_ = json.NewDecoder(list.Body).Decode(&rooms)
	if strings.Join(rooms["rooms"], ",") != "a,b" {
		t.Errorf("rooms = %v", rooms)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/rooms/a", nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", del.StatusCode)
	}
	if room, _ := s.Store.Get(t.Context(), "a"); room != nil {
		t.Error("room a still stored")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidJSON, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeRoomNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusBadGateway},
		{&errors.UpstreamError{StatusCode: 500}, http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
