package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pollenjp/gameserver/internal/rooms"
)

func (s *Server) handleRoomCreate(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "room_create") {
		return
	}
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req roomCreateRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	difficulty := rooms.LiveDifficulty(req.SelectDifficulty)
	if !difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "invalid select_difficulty")
		return
	}

	roomID, err := s.rooms.Create(r.Context(), req.LiveID)
	if err != nil {
		s.log.Error("room create failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	// Creation and the host's join are two registry calls but one logical
	// operation for the client: a failed host join means no usable room.
	result := s.rooms.Join(r.Context(), rooms.JoinParams{
		RoomID:       roomID,
		UserID:       user.ID,
		UserName:     user.Name,
		LeaderCardID: user.LeaderCardID,
		Difficulty:   difficulty,
		IsHost:       true,
	})
	if result != rooms.JoinOk {
		s.log.Error("host join failed",
			slog.Int64("room_id", roomID),
			slog.Int64("user_id", user.ID),
			slog.Int("result", int(result)),
		)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	writeJSON(w, http.StatusOK, roomCreateResponse{RoomID: roomID})
}

func (s *Server) handleRoomList(w http.ResponseWriter, r *http.Request) {
	var req roomListRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	infos, err := s.rooms.ByLiveID(r.Context(), req.LiveID)
	if err != nil {
		s.log.Error("room list failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	list := make([]roomInfo, 0, len(infos))
	for _, info := range infos {
		list = append(list, roomInfo{
			RoomID:          info.RoomID,
			LiveID:          info.LiveID,
			JoinedUserCount: info.JoinedUserCount,
			MaxUserCount:    info.MaxUserCount,
		})
	}
	writeJSON(w, http.StatusOK, roomListResponse{RoomInfoList: list})
}

func (s *Server) handleRoomJoin(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "room_join") {
		return
	}
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req roomJoinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	difficulty := rooms.LiveDifficulty(req.SelectDifficulty)
	if !difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "invalid select_difficulty")
		return
	}
	result := s.rooms.Join(r.Context(), rooms.JoinParams{
		RoomID:       req.RoomID,
		UserID:       user.ID,
		UserName:     user.Name,
		LeaderCardID: user.LeaderCardID,
		Difficulty:   difficulty,
	})
	writeJSON(w, http.StatusOK, roomJoinResponse{JoinRoomResult: int(result)})
}

func (s *Server) handleRoomWait(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req roomWaitRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	status, err := s.rooms.Status(r.Context(), req.RoomID)
	if err != nil {
		if errors.Is(err, rooms.ErrNotFound) {
			// The room was torn down between the client's poll cycles;
			// report Dissolution so the client stops waiting.
			writeJSON(w, http.StatusOK, roomWaitResponse{
				Status:       int(rooms.StatusDissolution),
				RoomUserList: []roomUser{},
			})
			return
		}
		s.log.Error("room status failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to fetch room status")
		return
	}
	members, err := s.rooms.Members(r.Context(), req.RoomID, user.ID)
	if err != nil {
		s.log.Error("room members failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to fetch room members")
		return
	}
	list := make([]roomUser, 0, len(members))
	for _, m := range members {
		list = append(list, roomUser{
			UserID:           m.UserID,
			UserName:         m.Name,
			LeaderCardID:     m.LeaderCardID,
			SelectDifficulty: int(m.Difficulty),
			IsMe:             m.IsMe,
			IsHost:           m.IsHost,
		})
	}
	writeJSON(w, http.StatusOK, roomWaitResponse{
		Status:       int(status),
		RoomUserList: list,
	})
}

func (s *Server) handleRoomStart(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	var req roomStartRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.rooms.Start(r.Context(), req.RoomID); err != nil {
		s.log.Error("room start failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to start room")
		return
	}
	writeJSON(w, http.StatusOK, emptyResponse{})
}

func (s *Server) handleRoomEnd(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req roomEndRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if len(req.JudgeCountList) != 5 {
		writeError(w, http.StatusBadRequest, "judge_count_list must be 5")
		return
	}
	err := s.rooms.Finish(r.Context(), rooms.PlayResult{
		RoomID:            req.RoomID,
		UserID:            user.ID,
		JudgeCountPerfect: req.JudgeCountList[0],
		JudgeCountGreat:   req.JudgeCountList[1],
		JudgeCountGood:    req.JudgeCountList[2],
		JudgeCountBad:     req.JudgeCountList[3],
		JudgeCountMiss:    req.JudgeCountList[4],
		Score:             req.Score,
	})
	if err != nil {
		s.log.Error("room end failed",
			slog.Int64("room_id", req.RoomID),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "failed to store result")
		return
	}
	writeJSON(w, http.StatusOK, emptyResponse{})
}

func (s *Server) handleRoomResult(w http.ResponseWriter, r *http.Request) {
	var req roomResultRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	results, err := s.rooms.Results(r.Context(), req.RoomID)
	if err != nil {
		s.log.Error("room result failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to fetch results")
		return
	}
	list := make([]resultUser, 0, len(results))
	for _, res := range results {
		list = append(list, resultUser{
			UserID:         res.UserID,
			JudgeCountList: res.JudgeCounts[:],
			Score:          res.Score,
		})
	}
	writeJSON(w, http.StatusOK, roomResultResponse{ResultUserList: list})
}

func (s *Server) handleRoomLeave(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req roomLeaveRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.rooms.Leave(r.Context(), req.RoomID, user.ID); err != nil {
		if errors.Is(err, rooms.ErrNotInRoom) {
			writeError(w, http.StatusBadRequest, "not a member of the room")
			return
		}
		s.log.Error("room leave failed",
			slog.Int64("room_id", req.RoomID),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "failed to leave room")
		return
	}
	writeJSON(w, http.StatusOK, emptyResponse{})
}
