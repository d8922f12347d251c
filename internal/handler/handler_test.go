package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social_chat/internal/domain"
	"social_chat/internal/handler"
	"social_chat/internal/middleware"
	"social_chat/internal/mocks"
	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser заменяет RequireAuth в тестах
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.APIError {
	t.Helper()
	var body apperrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthHandler(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockAuthService) {
		auth := mocks.NewMockAuthService(gomock.NewController(t))
		h := handler.NewAuthHandler(auth, logger.Nop())
		r := gin.New()
		r.POST("/register", h.Register)
		r.POST("/login", h.Login)
		r.POST("/token/refresh", h.RefreshToken)
		r.POST("/logout", h.Logout)
		return r, auth
	}

	t.Run("should register a user", func(t *testing.T) {
		req := require.New(t)
		r, auth := newRouter(t)
		auth.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in service.RegisterInput) (*domain.User, error) {
			req.Equal("alice", in.Username)
			req.Equal("secret123", in.Password)
			return &domain.User{ID: 1, Username: in.Username, Email: in.Email}, nil
		})

		w := doJSON(r, http.MethodPost, "/register",
			`{"username":"alice","password":"secret123","first_name":"A","last_name":"L","email":"a@example.com"}`)
		req.Equal(http.StatusCreated, w.Code)
		req.NotContains(w.Body.String(), "secret123")
	})

	t.Run("should report a duplicate username with its field", func(t *testing.T) {
		req := require.New(t)
		r, auth := newRouter(t)
		auth.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.NewFieldError(apperrors.ErrConflict, "username already exists", "username"))

		w := doJSON(r, http.MethodPost, "/register", `{"username":"alice"}`)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"username"}, decodeError(t, w).Fields)
	})

	t.Run("should pass client metadata to login", func(t *testing.T) {
		req := require.New(t)
		r, auth := newRouter(t)
		auth.EXPECT().Login(gomock.Any(), "alice", "secret123", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, meta service.SessionMeta) (*service.LoginResponse, error) {
				req.Equal("192.0.2.1", meta.IPAddress)
				return &service.LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil
			})

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"secret123"}`))
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.RemoteAddr = "192.0.2.1:5555"
		r.ServeHTTP(w, httpReq)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`{"user":null,"access_token":"a","refresh_token":"r"}`, w.Body.String())
	})

	t.Run("should map bad credentials to 401", func(t *testing.T) {
		r, auth := newRouter(t)
		auth.EXPECT().Login(gomock.Any(), "alice", "nope", gomock.Any()).Return(nil, apperrors.ErrInvalidCredentials)

		w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should require a refresh token", func(t *testing.T) {
		req := require.New(t)
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodPost, "/token/refresh", `{}`)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"refresh_token"}, decodeError(t, w).Fields)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodPost, "/logout", `{"refresh_token":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should revoke the session on logout", func(t *testing.T) {
		r, auth := newRouter(t)
		auth.EXPECT().Logout(gomock.Any(), "r").Return(nil)

		w := doJSON(r, http.MethodPost, "/logout", `{"refresh_token":"r"}`)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestUserHandler(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockUserService) {
		users := mocks.NewMockUserService(gomock.NewController(t))
		h := handler.NewUserHandler(users, logger.Nop())
		r := gin.New()
		r.GET("/users/me", asUser(7), h.GetMe)
		r.PUT("/users/me", asUser(7), h.UpdateMe)
		r.GET("/users/:id", asUser(7), h.GetByID)
		r.POST("/contacts", asUser(7), h.AddContact)
		r.DELETE("/contacts/:id", asUser(7), h.RemoveContact)
		r.GET("/anonymous", h.GetMe)
		return r, users
	}

	t.Run("should return the caller", func(t *testing.T) {
		r, users := newRouter(t)
		users.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&domain.User{ID: 7, Username: "alice"}, nil)

		w := doJSON(r, http.MethodGet, "/users/me", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"username":"alice"`)
	})

	t.Run("should answer 401 without an authenticated user", func(t *testing.T) {
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodGet, "/anonymous", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should forward only the fields that were sent", func(t *testing.T) {
		req := require.New(t)
		r, users := newRouter(t)
		users.EXPECT().UpdateProfile(gomock.Any(), int64(7), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, in service.UpdateProfileInput) (*domain.User, error) {
				req.NotNil(in.Username)
				req.Equal("bob", *in.Username)
				req.Nil(in.Email)
				return &domain.User{ID: 7, Username: "bob"}, nil
			})

		w := doJSON(r, http.MethodPut, "/users/me", `{"username":"bob"}`)
		req.Equal(http.StatusOK, w.Code)
	})

	t.Run("should reject a non-numeric id", func(t *testing.T) {
		req := require.New(t)
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodGet, "/users/abc", "")
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"id"}, decodeError(t, w).Fields)
	})

	t.Run("should map a missing user to 404", func(t *testing.T) {
		r, users := newRouter(t)
		users.EXPECT().GetByID(gomock.Any(), int64(42)).Return(nil, apperrors.ErrUserNotFound)

		w := doJSON(r, http.MethodGet, "/users/42", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should add a contact", func(t *testing.T) {
		r, users := newRouter(t)
		users.EXPECT().AddContact(gomock.Any(), int64(7), service.ContactInput{FirstName: "Bob", Phone: "+100"}).
			Return(&domain.Contact{OwnerID: 7, ContactID: 8, FirstName: "Bob"}, nil)

		w := doJSON(r, http.MethodPost, "/contacts", `{"first_name":"Bob","phone_number":"+100"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("should map a missing contact to 404", func(t *testing.T) {
		r, users := newRouter(t)
		users.EXPECT().RemoveContact(gomock.Any(), int64(7), int64(8)).Return(apperrors.ErrContactNotFound)

		w := doJSON(r, http.MethodDelete, "/contacts/8", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestChatHandler(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockChatService) {
		chats := mocks.NewMockChatService(gomock.NewController(t))
		h := handler.NewChatHandler(chats, logger.Nop())
		r := gin.New()
		r.GET("/chats", asUser(1), h.ListChats)
		r.POST("/chats", asUser(1), h.CreateChat)
		r.GET("/chat/:id", asUser(1), h.GetChat)
		r.DELETE("/chat/:id", asUser(1), h.DeleteChat)
		r.GET("/chat/:id/members", asUser(1), h.GetMembers)
		r.POST("/chat/:id/members", asUser(1), h.AddMember)
		r.DELETE("/chat/:id/members/:userId", asUser(1), h.RemoveMember)
		r.GET("/chat/:id/audit", asUser(1), h.GetAuditLog)
		return r, chats
	}

	t.Run("should create a chat", func(t *testing.T) {
		req := require.New(t)
		r, chats := newRouter(t)
		chats.EXPECT().CreateChat(gomock.Any(), "general", int64(1), []int64{2, 3}).
			Return(&domain.Chat{ID: 10, Name: "general", OwnerID: 1}, nil)

		w := doJSON(r, http.MethodPost, "/chats", `{"name":"general","members":[2,3]}`)
		req.Equal(http.StatusCreated, w.Code)
		req.Contains(w.Body.String(), `"cid":10`)
	})

	t.Run("should return validation fields for a blank name", func(t *testing.T) {
		req := require.New(t)
		r, chats := newRouter(t)
		chats.EXPECT().CreateChat(gomock.Any(), " ", int64(1), nil).
			Return(nil, apperrors.NewFieldError(apperrors.ErrValidation, "missing or invalid fields: name", "name"))

		w := doJSON(r, http.MethodPost, "/chats", `{"name":" "}`)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"name"}, decodeError(t, w).Fields)
	})

	t.Run("should forbid deletion by a non-owner", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().DeleteChat(gomock.Any(), int64(1), int64(10)).Return(apperrors.ErrForbidden)

		w := doJSON(r, http.MethodDelete, "/chat/10", "")
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should map a missing chat to 404", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().GetChat(gomock.Any(), int64(99)).Return(nil, apperrors.ErrChatNotFound)

		w := doJSON(r, http.MethodGet, "/chat/99", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should hide internal errors", func(t *testing.T) {
		req := require.New(t)
		r, chats := newRouter(t)
		chats.EXPECT().ListUserChats(gomock.Any(), int64(1)).Return(nil, errors.New("connection reset"))

		w := doJSON(r, http.MethodGet, "/chats", "")
		req.Equal(http.StatusInternalServerError, w.Code)
		req.NotContains(w.Body.String(), "connection reset")
	})

	t.Run("should require contact_id when adding a member", func(t *testing.T) {
		req := require.New(t)
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodPost, "/chat/10/members", `{}`)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"contact_id"}, decodeError(t, w).Fields)
	})

	t.Run("should add a member", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().AddMember(gomock.Any(), int64(1), int64(10), int64(4)).Return(nil)

		w := doJSON(r, http.MethodPost, "/chat/10/members", `{"contact_id":4}`)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should remove a member", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().RemoveMember(gomock.Any(), int64(1), int64(10), int64(4)).Return(nil)

		w := doJSON(r, http.MethodDelete, "/chat/10/members/4", "")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should list members", func(t *testing.T) {
		req := require.New(t)
		r, chats := newRouter(t)
		chats.EXPECT().GetMembers(gomock.Any(), int64(10)).
			Return([]*domain.Member{{UserID: 1, Username: "alice"}, {UserID: 2, Username: "bob"}}, nil)

		w := doJSON(r, http.MethodGet, "/chat/10/members", "")
		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`{"members":[{"uid":1,"username":"alice"},{"uid":2,"username":"bob"}]}`, w.Body.String())
	})

	t.Run("should restrict the audit log to the owner", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().GetAuditLog(gomock.Any(), int64(1), int64(10)).Return(nil, apperrors.ErrForbidden)

		w := doJSON(r, http.MethodGet, "/chat/10/audit", "")
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestMessageHandler(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockChatService) {
		chats := mocks.NewMockChatService(gomock.NewController(t))
		h := handler.NewMessageHandler(chats, 1024, logger.Nop())
		r := gin.New()
		r.GET("/chat/:id/messages", asUser(1), h.GetMessages)
		r.POST("/chat/:id/messages", asUser(1), h.PostMessage)
		r.POST("/chat/:id/message/:messageId/reply", asUser(1), h.PostReply)
		r.POST("/chat/:id/message/:messageId/like", asUser(1), h.Like)
		r.POST("/chat/:id/message/:messageId/dislike", asUser(1), h.Dislike)
		return r, chats
	}

	t.Run("should render an empty chat as an empty list", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().GetChatMessages(gomock.Any(), int64(10)).Return([]*domain.MessageView{}, nil)

		w := doJSON(r, http.MethodGet, "/chat/10/messages", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"messages":[]}`, w.Body.String())
	})

	t.Run("should post a json message", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().PostMessage(gomock.Any(), int64(10), int64(1), "hello #go", nil).
			Return(&domain.Message{ID: 5, ChatID: 10, AuthorID: 1, Text: "hello #go"}, nil)

		w := doJSON(r, http.MethodPost, "/chat/10/messages", `{"message":"hello #go"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("should pass a multipart image to the service", func(t *testing.T) {
		req := require.New(t)
		r, chats := newRouter(t)
		png := []byte("\x89PNG\r\n\x1a\n0000")
		chats.EXPECT().PostMessage(gomock.Any(), int64(10), int64(1), "look", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ int64, _ string, img *domain.Image) (*domain.Message, error) {
				req.NotNil(img)
				req.Equal("cat.png", img.Filename)
				req.Equal(png, img.Data)
				return &domain.Message{ID: 6}, nil
			})

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		req.NoError(mw.WriteField("message", "look"))
		part, err := mw.CreateFormFile("image", "cat.png")
		req.NoError(err)
		_, err = part.Write(png)
		req.NoError(err)
		req.NoError(mw.Close())

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodPost, "/chat/10/messages", &body)
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())
		r.ServeHTTP(w, httpReq)
		req.Equal(http.StatusCreated, w.Code)
	})

	t.Run("should reject an oversized image before the service", func(t *testing.T) {
		req := require.New(t)
		r, _ := newRouter(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", "big.png")
		req.NoError(err)
		_, err = part.Write(bytes.Repeat([]byte{1}, 2048))
		req.NoError(err)
		req.NoError(mw.Close())

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodPost, "/chat/10/messages", &body)
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())
		r.ServeHTTP(w, httpReq)
		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal([]string{"image"}, decodeError(t, w).Fields)
	})

	t.Run("should stop reading a body far above the image limit", func(t *testing.T) {
		req := require.New(t)
		r, _ := newRouter(t)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", "huge.png")
		req.NoError(err)
		_, err = part.Write(bytes.Repeat([]byte{1}, 2<<20))
		req.NoError(err)
		req.NoError(mw.Close())

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodPost, "/chat/10/messages", &body)
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())
		r.ServeHTTP(w, httpReq)
		req.Equal(http.StatusBadRequest, w.Code)
		apiErr := decodeError(t, w)
		req.Equal([]string{"image"}, apiErr.Fields)
		req.Equal("image is too large", apiErr.Message)
	})

	t.Run("should forbid posting by a non-member", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().PostMessage(gomock.Any(), int64(10), int64(1), "hi", nil).Return(nil, apperrors.ErrForbidden)

		w := doJSON(r, http.MethodPost, "/chat/10/messages", `{"message":"hi"}`)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should reply to a message", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().PostReply(gomock.Any(), "agreed", int64(1), int64(5), int64(10), nil).
			Return(&domain.Message{ID: 7}, nil)

		w := doJSON(r, http.MethodPost, "/chat/10/message/5/reply", `{"message":"agreed"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("should map a missing parent to 404", func(t *testing.T) {
		r, chats := newRouter(t)
		chats.EXPECT().PostReply(gomock.Any(), "agreed", int64(1), int64(5), int64(10), nil).
			Return(nil, apperrors.ErrMessageNotFound)

		w := doJSON(r, http.MethodPost, "/chat/10/message/5/reply", `{"message":"agreed"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should vote in both directions", func(t *testing.T) {
		r, chats := newRouter(t)
		gomock.InOrder(
			chats.EXPECT().Vote(gomock.Any(), int64(10), int64(5), int64(1), true).
				Return(&domain.Vote{MessageID: 5, UserID: 1, Upvote: true, CreatedAt: time.Now()}, nil),
			chats.EXPECT().Vote(gomock.Any(), int64(10), int64(5), int64(1), false).
				Return(&domain.Vote{MessageID: 5, UserID: 1}, nil),
		)

		require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/chat/10/message/5/like", "").Code)
		require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/chat/10/message/5/dislike", "").Code)
	})
}

func TestFeedHandler(t *testing.T) {
	t.Run("should close the stream once the user is removed from the chat", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		feed := mocks.NewMockFeedService(ctrl)
		sub := mocks.NewMockSubscription(ctrl)

		ch := make(chan *domain.FeedEvent, 2)
		var events <-chan *domain.FeedEvent = ch
		feed.EXPECT().Subscribe(gomock.Any(), int64(1), int64(3)).Return(sub, nil)
		sub.EXPECT().Events().Return(events).AnyTimes()
		sub.EXPECT().Close().Return(nil).AnyTimes()

		h := handler.NewFeedHandler(feed, logger.Nop())
		r := gin.New()
		r.GET("/chat/:id/feed", asUser(3), h.Stream)
		srv := httptest.NewServer(r)
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/1/feed", nil)
		req.NoError(err)
		defer conn.Close()

		ch <- &domain.FeedEvent{Type: domain.FeedEventMemberRemoved, ChatID: 1, UserID: 8}
		ch <- &domain.FeedEvent{Type: domain.FeedEventMemberRemoved, ChatID: 1, UserID: 3}

		var got domain.FeedEvent
		req.NoError(conn.ReadJSON(&got))
		req.Equal(int64(8), got.UserID)
		req.NoError(conn.ReadJSON(&got))
		req.Equal(int64(3), got.UserID)

		_, _, err = conn.ReadMessage()
		req.True(websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	})
}

func TestStatsHandler(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockStatsService) {
		stats := mocks.NewMockStatsService(gomock.NewController(t))
		h := handler.NewStatsHandler(stats, logger.Nop())
		r := gin.New()
		r.GET("/stats/posts", h.Daily(domain.StatsPosts))
		r.GET("/stats/trending", h.Trending)
		r.GET("/stats/users/:id/messages", h.UserMessages)
		r.GET("/stats/messages/:id", h.MessageStats)
		return r, stats
	}

	t.Run("should key daily counts by metric", func(t *testing.T) {
		r, stats := newRouter(t)
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		stats.EXPECT().Daily(gomock.Any(), domain.StatsPosts).Return([]*domain.DailyCount{{Day: day, Total: 3}}, nil)

		w := doJSON(r, http.MethodGet, "/stats/posts", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"posts":[{"day":"2024-03-01T00:00:00Z","total":3}]}`, w.Body.String())
	})

	t.Run("should pass the trending limit", func(t *testing.T) {
		r, stats := newRouter(t)
		stats.EXPECT().Trending(gomock.Any(), 3).Return([]*domain.TrendingHashtag{{Hashtag: "go", Count: 4}}, nil)

		w := doJSON(r, http.MethodGet, "/stats/trending?limit=3", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"trending":[{"hashtag":"go","count":4}]}`, w.Body.String())
	})

	t.Run("should reject a bad limit", func(t *testing.T) {
		r, _ := newRouter(t)

		w := doJSON(r, http.MethodGet, "/stats/trending?limit=-1", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should map an unknown user to 404", func(t *testing.T) {
		r, stats := newRouter(t)
		stats.EXPECT().UserMessages(gomock.Any(), int64(9)).Return(nil, apperrors.ErrUserNotFound)

		w := doJSON(r, http.MethodGet, "/stats/users/9/messages", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should return message stats", func(t *testing.T) {
		r, stats := newRouter(t)
		stats.EXPECT().MessageStats(gomock.Any(), int64(5)).
			Return(&domain.MessageStats{MessageID: 5, Likes: 2, Dislikes: 1, Replies: 3}, nil)

		w := doJSON(r, http.MethodGet, "/stats/messages/5", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"mid":5,"likes":2,"dislikes":1,"replies":3}`, w.Body.String())
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("should report ok when every dependency answers", func(t *testing.T) {
		h := handler.NewHealthHandler("social-chat", map[string]handler.Pinger{
			"postgres": func(context.Context) error { return nil },
		})
		r := gin.New()
		r.GET("/health", h.Check)

		w := doJSON(r, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"status":"ok","service":"social-chat","dependencies":{"postgres":"ok"}}`, w.Body.String())
	})

	t.Run("should degrade when a dependency fails", func(t *testing.T) {
		h := handler.NewHealthHandler("social-chat", map[string]handler.Pinger{
			"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		r := gin.New()
		r.GET("/health", h.Check)

		w := doJSON(r, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.Contains(t, w.Body.String(), "refused")
	})
}
