package server

import (
	"net/http"
	"testing"

	"github.com/pollenjp/gameserver/internal/rooms"
)

func TestUserRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	token := createUser(t, ts, "test1", 1000)

	resp := doRequest(t, ts, http.MethodGet, "/user/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["name"] != "test1" || body["leader_card_id"] != float64(1000) {
		t.Fatalf("unexpected user body %v", body)
	}

	resp = doRequest(t, ts, http.MethodPost, "/user/update", token, map[string]any{
		"user_name":      "test1_new_name",
		"leader_card_id": 1001,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/user/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refetch: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["name"] != "test1_new_name" || body["leader_card_id"] != float64(1001) {
		t.Fatalf("update not applied: %v", body)
	}
}

func TestUserEndpointsRejectBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/user/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing header: expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/user/me", "no-such-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown token: expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/user/update", "no-such-token", map[string]any{
		"user_name":      "x",
		"leader_card_id": 1,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("update with unknown token: expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestRoomLifecycleScenario(t *testing.T) {
	ts := newTestServer(t)
	token := createUser(t, ts, "host", 7)
	roomID := createRoom(t, ts, token, 1001)

	resp := doRequest(t, ts, http.MethodPost, "/room/list", "", map[string]any{"live_id": 1001})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	list := decodeBody(t, resp)["room_info_list"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 room in listing, got %v", list)
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/wait", token, map[string]any{"room_id": roomID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wait: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != float64(rooms.StatusWaiting) {
		t.Fatalf("expected Waiting status, got %v", body)
	}
	waiting := body["room_user_list"].([]any)
	if len(waiting) != 1 {
		t.Fatalf("expected 1 room user, got %v", waiting)
	}
	me := waiting[0].(map[string]any)
	if me["is_me"] != true || me["is_host"] != true || me["user_name"] != "host" {
		t.Fatalf("unexpected room user %v", me)
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/start", token, map[string]any{"room_id": roomID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/wait", token, map[string]any{"room_id": roomID})
	if decodeBody(t, resp)["status"] != float64(rooms.StatusLiveStart) {
		t.Fatal("expected LiveStart status after start")
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/end", token, map[string]any{
		"room_id":          roomID,
		"judge_count_list": []int{4, 3, 2, 1, 0},
		"score":            1234,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/result", "", map[string]any{"room_id": roomID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result: expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	results := decodeBody(t, resp)["result_user_list"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %v", results)
	}
	result := results[0].(map[string]any)
	if result["score"] != float64(1234) {
		t.Fatalf("unexpected result %v", result)
	}

	// The last member finished, so the room is gone; polling the wait
	// endpoint now reports Dissolution.
	resp = doRequest(t, ts, http.MethodPost, "/room/wait", token, map[string]any{"room_id": roomID})
	if decodeBody(t, resp)["status"] != float64(rooms.StatusDissolution) {
		t.Fatal("expected Dissolution status for torn-down room")
	}
}

func TestRoomJoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	token := createUser(t, ts, "player", 1)

	resp := doRequest(t, ts, http.MethodPost, "/room/join", token, map[string]any{
		"room_id":           999999,
		"select_difficulty": int(rooms.DifficultyNormal),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if decodeBody(t, resp)["join_room_result"] != float64(rooms.JoinDisbanded) {
		t.Fatal("expected Disbanded join result")
	}
}

func TestRoomJoinFullRoom(t *testing.T) {
	ts := newTestServer(t)
	host := createUser(t, ts, "host", 1)
	roomID := createRoom(t, ts, host, 1001)

	for i := 0; i < 3; i++ {
		token := createUser(t, ts, "player", 1)
		resp := doRequest(t, ts, http.MethodPost, "/room/join", token, map[string]any{
			"room_id":           roomID,
			"select_difficulty": int(rooms.DifficultyNormal),
		})
		if decodeBody(t, resp)["join_room_result"] != float64(rooms.JoinOk) {
			t.Fatalf("join %d should succeed", i)
		}
	}

	late := createUser(t, ts, "late", 1)
	resp := doRequest(t, ts, http.MethodPost, "/room/join", late, map[string]any{
		"room_id":           roomID,
		"select_difficulty": int(rooms.DifficultyNormal),
	})
	if decodeBody(t, resp)["join_room_result"] != float64(rooms.JoinRoomFull) {
		t.Fatal("expected RoomFull join result")
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/wait", host, map[string]any{"room_id": roomID})
	if got := len(decodeBody(t, resp)["room_user_list"].([]any)); got != 4 {
		t.Fatalf("rejected join changed membership: %d members", got)
	}
}

func TestRoomEndValidatesJudgeCounts(t *testing.T) {
	ts := newTestServer(t)
	token := createUser(t, ts, "host", 1)
	roomID := createRoom(t, ts, token, 1001)

	resp := doRequest(t, ts, http.MethodPost, "/room/end", token, map[string]any{
		"room_id":          roomID,
		"judge_count_list": []int{4, 3, 2},
		"score":            10,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestRoomLeaveWithoutMembership(t *testing.T) {
	ts := newTestServer(t)
	host := createUser(t, ts, "host", 1)
	outsider := createUser(t, ts, "outsider", 1)
	roomID := createRoom(t, ts, host, 1001)

	resp := doRequest(t, ts, http.MethodPost, "/room/leave", outsider, map[string]any{"room_id": roomID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestRoomListWildcard(t *testing.T) {
	ts := newTestServer(t)
	host1 := createUser(t, ts, "host1", 1)
	host2 := createUser(t, ts, "host2", 1)
	createRoom(t, ts, host1, 1001)
	createRoom(t, ts, host2, 2002)

	resp := doRequest(t, ts, http.MethodPost, "/room/list", "", map[string]any{"live_id": 0})
	if got := len(decodeBody(t, resp)["room_info_list"].([]any)); got != 2 {
		t.Fatalf("wildcard: expected 2 rooms, got %d", got)
	}

	resp = doRequest(t, ts, http.MethodPost, "/room/list", "", map[string]any{"live_id": 2002})
	list := decodeBody(t, resp)["room_info_list"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 room for live 2002, got %v", list)
	}
	if list[0].(map[string]any)["live_id"] != float64(2002) {
		t.Fatalf("wrong room listed: %v", list)
	}
}
