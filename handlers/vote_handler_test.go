package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"costume-voting-backend/database"
	"costume-voting-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
	return m
}

func TestVotingStatus(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)

	w := client.get("/api/vote")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, false, resp["voting_enabled"])

	enableVoting(t)
	createCategory(t, "Funniest Costume")

	w = client.get("/api/vote")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, true, resp["voting_enabled"])
	assert.Equal(t, float64(1), resp["categories"])
}

func TestVoteStep_ClosedVoting(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)

	assert.Equal(t, http.StatusForbidden, client.get("/api/vote/step/0").Code)
	assert.Equal(t, http.StatusForbidden, client.postForm("/api/vote/step/0", url.Values{}).Code)
	assert.Equal(t, http.StatusForbidden, client.postForm("/api/vote/finish", url.Values{}).Code)
}

func TestVoteStep_NoCategories(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)

	w := client.get("/api/vote/step/0")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, float64(0), resp["categories"])

	w = client.postForm("/api/vote/step/0", url.Values{"voter_first": {"Jane"}, "voter_last": {"Smith"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteStep_OutOfRangeRedirects(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")

	// 越界和无法解析的步骤都退回第一步
	for _, path := range []string{"/api/vote/step/5", "/api/vote/step/-1", "/api/vote/step/abc"} {
		w := client.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/api/vote/step/0", w.Header().Get("Location"), path)
	}

	w := client.postForm("/api/vote/step/5", url.Values{"nav": {"next"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestVoteStep_BlankNameRejected(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")

	w := client.postForm("/api/vote/step/0", url.Values{
		"voter_first": {"   "},
		"voter_last":  {"Smith"},
		"nav":         {"next"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteStep_PrevClampsAtFirstStep(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")
	createCategory(t, "Scariest Costume")

	w := client.postForm("/api/vote/step/0", url.Values{
		"voter_first": {"Jane"},
		"voter_last":  {"Smith"},
		"nav":         {"prev"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, false, resp["finish"])
	assert.Equal(t, float64(0), resp["next_idx"])
}

func TestVoteWizard_FullFlow(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)

	// 类别按名称排序：第0步是Funniest，第1步是Scariest
	catA := createCategory(t, "Funniest Costume")
	catB := createCategory(t, "Scariest Costume")
	ghost := createEntry(t, "Ann", "Lee", "Ghost")
	witch := createEntry(t, "Bea", "Wong", "Witch")

	// 第0步：姓名+选择，前进
	w := client.postForm("/api/vote/step/0", url.Values{
		"voter_first":     {"Jane"},
		"voter_last":      {"Smith"},
		"choice_entry_id": {itoa(ghost.ID)},
		"nav":             {"next"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, false, resp["finish"])
	assert.Equal(t, float64(1), resp["next_idx"])
	assert.Equal(t, "/api/vote/step/1", resp["next_url"])

	// 第1步的GET要能回显草稿
	w = client.get("/api/vote/step/1")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, "Jane", resp["voter_first"])
	assert.Equal(t, float64(2), resp["total"])

	// 最后一步：选择并结束
	w = client.postForm("/api/vote/step/1", url.Values{
		"choice_entry_id": {itoa(witch.ID)},
		"nav":             {"finish"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeJSON(t, w.Body.Bytes())
	assert.Equal(t, true, resp["finish"])

	// 提交选票
	w = client.postForm("/api/vote/finish", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeJSON(t, w.Body.Bytes())
	assert.NotNil(t, resp["vote_id"])

	var vote models.Vote
	require.NoError(t, database.DB.First(&vote).Error)
	assert.Equal(t, "Jane", vote.VoterFirst)
	assert.Equal(t, "jane|smith", vote.VoterKey)

	var items []models.VoteItem
	database.DB.Order("category_id ASC").Find(&items)
	require.Len(t, items, 2)
	assert.Equal(t, catA.ID, items[0].CategoryID)
	assert.Equal(t, ghost.ID, items[0].EntryID)
	assert.Equal(t, catB.ID, items[1].CategoryID)
	assert.Equal(t, witch.ID, items[1].EntryID)
}

func TestVoteWizard_UnparsableChoiceIgnored(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")
	createEntry(t, "Ann", "Lee", "Ghost")

	w := client.postForm("/api/vote/step/0", url.Values{
		"voter_first":     {"Jane"},
		"voter_last":      {"Smith"},
		"choice_entry_id": {"not-a-number"},
		"nav":             {"finish"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = client.postForm("/api/vote/finish", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)

	// 选票提交成功但不含任何选项
	var itemCount int64
	database.DB.Model(&models.VoteItem{}).Count(&itemCount)
	assert.Zero(t, itemCount)
}

func TestFinishVote_MissingVoter(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")

	w := client.postForm("/api/vote/finish", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinishVote_DuplicateVoter(t *testing.T) {
	router := setupTestEnv(t)
	enableVoting(t)
	createCategory(t, "Funniest Costume")
	entry := createEntry(t, "Ann", "Lee", "Ghost")

	first := newClient(t, router)
	w := first.postForm("/api/vote/step/0", url.Values{
		"voter_first":     {"Jane"},
		"voter_last":      {"Smith"},
		"choice_entry_id": {itoa(entry.ID)},
		"nav":             {"finish"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, first.postForm("/api/vote/finish", url.Values{}).Code)

	// 另一个浏览器会话，同一个人换大小写
	second := newClient(t, router)
	w = second.postForm("/api/vote/step/0", url.Values{
		"voter_first":     {"JANE"},
		"voter_last":      {"smith"},
		"choice_entry_id": {itoa(entry.ID)},
		"nav":             {"finish"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = second.postForm("/api/vote/finish", url.Values{})
	assert.Equal(t, http.StatusConflict, w.Code)

	var voteCount int64
	database.DB.Model(&models.Vote{}).Count(&voteCount)
	assert.Equal(t, int64(1), voteCount)

	// 草稿已被丢弃，再次提交变成缺少姓名
	w = second.postForm("/api/vote/finish", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinishVote_ToggledOffMidWizard(t *testing.T) {
	router := setupTestEnv(t)
	client := newClient(t, router)
	enableVoting(t)
	createCategory(t, "Funniest Costume")
	entry := createEntry(t, "Ann", "Lee", "Ghost")

	w := client.postForm("/api/vote/step/0", url.Values{
		"voter_first":     {"Jane"},
		"voter_last":      {"Smith"},
		"choice_entry_id": {itoa(entry.ID)},
		"nav":             {"finish"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 向导途中管理员关闭投票
	require.NoError(t, database.SetSetting(database.DB, database.SettingVotingEnabled, "0"))

	w = client.postForm("/api/vote/finish", url.Values{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var voteCount int64
	database.DB.Model(&models.Vote{}).Count(&voteCount)
	assert.Zero(t, voteCount)
}
