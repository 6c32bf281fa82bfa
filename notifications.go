package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/swotlink/backend/storage"
)

// createNotification stores an in-app notification.
func createNotification(store *storage.Store, userID int, notifType, title, message string, relatedID any, relatedType any) {
	store.Insert(storage.Notifications, storage.Record{
		"user_id":           userID,
		"notification_type": notifType,
		"title":             title,
		"message":           message,
		"related_id":        relatedID,
		"related_type":      relatedType,
		"is_read":           false,
	}, "notification_id")
}

// queueNotification enqueues an out-of-band delivery (email, push) for a
// later worker pass.
func queueNotification(store *storage.Store, userID int, notifType, title, message string, data map[string]any) {
	encoded := "{}"
	if b, err := json.Marshal(data); err == nil {
		encoded = string(b)
	}
	store.Insert(storage.NotificationQueue, storage.Record{
		"user_id":           userID,
		"notification_type": notifType,
		"title":             title,
		"message":           message,
		"data":              encoded,
		"status":            "pending",
		"attempts":          0,
	}, "queue_id")
}

// pushToUser relays an event over any open sockets. A nil hub, as in
// handler-level tests, is a no-op.
func pushToUser(hub *PresenceHub, userID int, data any) {
	if hub == nil {
		return
	}
	hub.SendToUser(userID, ServerEvent{Type: "notification", Data: data})
}

func notifyNewMatch(store *storage.Store, hub *PresenceHub, userID, matchedUserID int, matchedUserName string) {
	title := "New Match!"
	message := fmt.Sprintf("You have a new match with %s", matchedUserName)
	createNotification(store, userID, "new_match", title, message, matchedUserID, "user")
	pushToUser(hub, userID, map[string]any{"type": "new_match", "title": title, "message": message})
}

func notifyProfileView(store *storage.Store, userID, viewerID int, viewerName string) {
	title := "Profile View"
	message := fmt.Sprintf("%s viewed your profile", viewerName)
	createNotification(store, userID, "profile_view", title, message, viewerID, "user")
}

func notifyBadgeEarned(store *storage.Store, hub *PresenceHub, userID int, badgeName string) {
	title := "Badge Earned!"
	message := fmt.Sprintf("Congratulations! You earned the %q badge", badgeName)
	createNotification(store, userID, "badge_earned", title, message, nil, nil)
	pushToUser(hub, userID, map[string]any{"type": "badge_earned", "title": title, "message": message, "badge": badgeName})
}

func listNotificationsHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		limit := queryInt(r, "limit")
		if limit <= 0 {
			limit = 50
		}

		notifs := store.FindMany(storage.Notifications, storage.Where(map[string]any{"user_id": user.ID}))
		sort.SliceStable(notifs, func(i, j int) bool {
			return notifs[i].String("created_at") > notifs[j].String("created_at")
		})
		if len(notifs) > limit {
			notifs = notifs[:limit]
		}
		writeData(w, http.StatusOK, notifs)
	}
}

func markNotificationReadHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := strconv.Atoi(mux.Vars(r)["notificationId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid notification id")
			return
		}
		// Scoped to the caller so one user cannot mark another's as read.
		user := authUserFrom(r)
		store.Update(storage.Notifications,
			storage.Where(map[string]any{"notification_id": notificationID, "user_id": user.ID}),
			storage.Record{"is_read": true})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification marked as read"})
	}
}

func unreadCountHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		count := store.Count(storage.Notifications, storage.Where(map[string]any{"user_id": user.ID, "is_read": false}))
		writeData(w, http.StatusOK, map[string]any{"unread_count": count})
	}
}

// processNotificationQueue marks up to batchSize pending queue entries as
// sent. Actual email or push delivery would slot in here.
func processNotificationQueue(store *storage.Store, batchSize int) (processed int) {
	pending := store.FindMany(storage.NotificationQueue, storage.Where(map[string]any{"status": "pending"}))
	if len(pending) > batchSize {
		pending = pending[:batchSize]
	}
	for _, entry := range pending {
		ok := store.Update(storage.NotificationQueue,
			storage.Where(map[string]any{"queue_id": entry.Int("queue_id")}),
			storage.Record{"status": "sent"})
		if ok {
			processed++
		}
	}
	return processed
}
