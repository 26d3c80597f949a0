package mockapi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/PHJ369906/aox-miniapp/internal/api"
	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/pkg/token"
)

// Business codes returned with HTTP 200.
const (
	codeBadRequest = 400
	codeNotFound   = 404
	codeLoginFail  = 1001
)

// ============================================================================
// Auth
// ============================================================================

func (s *Server) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req api.PasswordLoginRequest
	if !decodeBody(r, &req) || req.Username == "" || req.Password == "" {
		respondFail(w, codeBadRequest, "username and password are required")
		return
	}

	s.mu.RLock()
	acct, ok := s.accounts[req.Username]
	s.mu.RUnlock()
	if !ok || subtle.ConstantTimeCompare([]byte(acct.password), []byte(req.Password)) != 1 {
		respondFail(w, codeLoginFail, "invalid username or password")
		return
	}
	s.completeLogin(w, r, acct.userID, "password")
}

func (s *Server) handleSendSms(w http.ResponseWriter, r *http.Request) {
	var req api.SendSmsCodeRequest
	if !decodeBody(r, &req) || !validPhone(req.Phone) {
		respondFail(w, codeBadRequest, "invalid phone number")
		return
	}
	s.log.Debug("sms code sent", "phone", req.Phone)
	respondOK(w, nil)
}

func (s *Server) handleSmsLogin(w http.ResponseWriter, r *http.Request) {
	var req api.SmsLoginRequest
	if !decodeBody(r, &req) || !validPhone(req.Phone) {
		respondFail(w, codeBadRequest, "invalid phone number")
		return
	}
	if req.Code != s.cfg.SmsCode {
		respondFail(w, codeLoginFail, "invalid verification code")
		return
	}

	s.mu.Lock()
	id, ok := s.byPhone[req.Phone]
	if !ok {
		id = s.createUserLocked(&domain.UserProfile{Phone: req.Phone})
	}
	s.mu.Unlock()
	s.completeLogin(w, r, id, "sms")
}

func (s *Server) handleWxLogin(w http.ResponseWriter, r *http.Request) {
	var req api.WxLoginRequest
	if !decodeBody(r, &req) || req.Code == "" {
		respondFail(w, codeBadRequest, "code is required")
		return
	}
	openID := "o" + token.Fingerprint(req.Code)

	s.mu.Lock()
	id, ok := s.byOpenID[openID]
	if !ok {
		id = s.createUserLocked(&domain.UserProfile{OpenID: openID})
		s.byOpenID[openID] = id
	}
	s.mu.Unlock()
	s.completeLogin(w, r, id, "wechat")
}

func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, userID int64, method string) {
	p, ok := s.profile(userID)
	if !ok {
		respondFail(w, codeLoginFail, "unknown user")
		return
	}
	tok, exp, err := s.tokens.issue(userID, s.generation.Load())
	if err != nil {
		s.log.Error("issue credential failed", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, 500, "internal server error", nil)
		return
	}
	s.logins.Add(1)
	s.log.Info("login succeeded",
		"request_id", requestIDFrom(r.Context()),
		"method", method,
		"user_id", userID,
		"expires_at", exp,
	)
	respondOK(w, api.LoginResponse{
		Token: tok,
		User: &api.LoginUser{
			UserID:   p.UserID,
			Nickname: p.Nickname,
			Avatar:   p.Avatar,
			Phone:    p.Phone,
		},
	})
}

func validPhone(phone string) bool {
	if len(phone) < 6 || len(phone) > 15 {
		return false
	}
	_, err := strconv.ParseUint(phone, 10, 64)
	return err == nil
}

// ============================================================================
// User
// ============================================================================

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := s.profile(userIDFrom(r.Context()))
	if !ok {
		respondFail(w, codeNotFound, "user not found")
		return
	}
	respondOK(w, p)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if !decodeBody(r, &partial) {
		respondFail(w, codeBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userIDFrom(r.Context())]
	if !ok {
		respondFail(w, codeNotFound, "user not found")
		return
	}
	if v, ok := partial["nickname"].(string); ok {
		p.Nickname = v
	}
	if v, ok := partial["avatar"].(string); ok {
		p.Avatar = v
	}
	if v, ok := partial["gender"].(float64); ok {
		p.Gender = int(v)
	}
	respondOK(w, nil)
}

func (s *Server) handleBindPhone(w http.ResponseWriter, r *http.Request) {
	var req api.BindPhoneRequest
	if !decodeBody(r, &req) || !validPhone(req.Phone) {
		respondFail(w, codeBadRequest, "invalid phone number")
		return
	}
	if req.Code != s.cfg.SmsCode {
		respondFail(w, codeLoginFail, "invalid verification code")
		return
	}

	id := userIDFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.byPhone[req.Phone]; taken && owner != id {
		respondFail(w, codeBadRequest, "phone already bound")
		return
	}
	p := s.users[id]
	if p.Phone != "" {
		delete(s.byPhone, p.Phone)
	}
	p.Phone = req.Phone
	s.byPhone[req.Phone] = id
	respondOK(w, nil)
}

// ============================================================================
// Orders
// ============================================================================

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	status, err := api.ParseOrderStatus(r.URL.Query().Get("status"))
	if err != nil {
		respondFail(w, codeBadRequest, err.Error())
		return
	}
	pageNum, pageSize := pageParams(r)

	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, paginate(s.data.ordersByStatus(status), pageNum, pageSize))
}

func (s *Server) handleOrderStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, s.data.orderStats())
}

// ============================================================================
// Addresses
// ============================================================================

func (s *Server) handleAddressList(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, s.data.addressItems())
}

func (s *Server) handleAddressDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.data.addressIndex(id)
	if i < 0 {
		respondFail(w, codeNotFound, "address not found")
		return
	}
	respondOK(w, s.data.addresses[i])
}

func validAddress(req api.AddressRequest) bool {
	return strings.TrimSpace(req.ReceiverName) != "" &&
		strings.TrimSpace(req.ReceiverPhone) != "" &&
		strings.TrimSpace(req.DetailAddress) != ""
}

func (s *Server) handleAddressCreate(w http.ResponseWriter, r *http.Request) {
	var req api.AddressRequest
	if !decodeBody(r, &req) || !validAddress(req) {
		respondFail(w, codeBadRequest, "receiver name, phone and detail address are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.data.nextAddrID
	s.data.nextAddrID++
	s.data.addresses = append(s.data.addresses, api.AddressDetail{ID: id, AddressRequest: req})
	if req.IsDefault || len(s.data.addresses) == 1 {
		s.data.setDefaultAddress(id)
	}
	respondOK(w, nil)
}

func (s *Server) handleAddressUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	var req api.AddressRequest
	if !ok || !decodeBody(r, &req) || !validAddress(req) {
		respondFail(w, codeBadRequest, "invalid address")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.data.addressIndex(id)
	if i < 0 {
		respondFail(w, codeNotFound, "address not found")
		return
	}
	wasDefault := s.data.addresses[i].IsDefault
	s.data.addresses[i].AddressRequest = req
	if req.IsDefault {
		s.data.setDefaultAddress(id)
	} else {
		s.data.addresses[i].IsDefault = wasDefault
	}
	respondOK(w, nil)
}

func (s *Server) handleAddressDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.addressIndex(id) < 0 {
		respondFail(w, codeNotFound, "address not found")
		return
	}
	s.data.setDefaultAddress(id)
	respondOK(w, nil)
}

func (s *Server) handleAddressRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.data.addressIndex(id)
	if i < 0 {
		respondFail(w, codeNotFound, "address not found")
		return
	}
	s.data.addresses = append(s.data.addresses[:i], s.data.addresses[i+1:]...)
	respondOK(w, nil)
}

// ============================================================================
// Favorites, messages, notices, banners
// ============================================================================

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	pageNum, pageSize := pageParams(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, paginate(s.data.favorites, pageNum, pageSize))
}

func (s *Server) handleFavoriteRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.data.favorites {
		if f.ID == id {
			s.data.favorites = append(s.data.favorites[:i], s.data.favorites[i+1:]...)
			respondOK(w, nil)
			return
		}
	}
	respondFail(w, codeNotFound, "favorite not found")
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	pageNum, pageSize := pageParams(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, paginate(s.data.messages, pageNum, pageSize))
}

func (s *Server) handleMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.messages {
		if s.data.messages[i].ID == id {
			s.data.messages[i].Read = true
			respondOK(w, nil)
			return
		}
	}
	respondFail(w, codeNotFound, "message not found")
}

func (s *Server) handleMessagesReadAll(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.messages {
		s.data.messages[i].Read = true
	}
	respondOK(w, nil)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.data.messages {
		if !m.Read {
			n++
		}
	}
	respondOK(w, n)
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	pageNum, pageSize := pageParams(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	respondOK(w, paginate(s.data.sortedNotices(), pageNum, pageSize))
}

func (s *Server) handleNoticesLatest(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = api.DefaultLatestNotices
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	notices := s.data.sortedNotices()
	respondOK(w, notices[:min(limit, len(notices))])
}

func (s *Server) handleNoticeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.data.notices {
		if n.NoticeID == id {
			respondOK(w, n)
			return
		}
	}
	respondFail(w, codeNotFound, "notice not found")
}

func (s *Server) handleNoticeRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondFail(w, codeBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.notices {
		if s.data.notices[i].NoticeID == id {
			s.data.notices[i].ReadCount++
			respondOK(w, nil)
			return
		}
	}
	respondFail(w, codeNotFound, "notice not found")
}

func (s *Server) handleBanners(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]api.Banner, 0, len(s.data.banners))
	for _, b := range s.data.banners {
		if b.Status == 1 {
			active = append(active, b)
		}
	}
	respondOK(w, active)
}
