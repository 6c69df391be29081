package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

func senderRegistration(wallet string) map[string]string {
	return map[string]string{
		"walletAddress":       wallet,
		"name":                "Asha",
		"email":               "asha@example.com",
		"phone":               "9876543210",
		"preferredPickupZone": "Kothrud",
	}
}

func TestRegisterSender(t *testing.T) {
	env := setupEnv(t)

	w := env.request(http.MethodPost, "/api/auth/register/sender", senderRegistration("0xABCDEF0000000000000000000000000000000001"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", data["walletAddress"])
	assert.Equal(t, "sender", data["role"])

	w = env.request(http.MethodPost, "/api/auth/register/sender", senderRegistration("0xabcdef0000000000000000000000000000000001"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already registered", decode(t, w)["message"])

	missing := senderRegistration(otherAddr)
	delete(missing, "phone")
	w = env.request(http.MethodPost, "/api/auth/register/sender", missing)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "All fields are required", decode(t, w)["message"])
}

func TestRegisterSenderRejectsMalformedEmail(t *testing.T) {
	env := setupEnv(t)

	for _, email := range []string{"asha", "asha@example", "asha @example.com", "@example.com", "asha@@example.com"} {
		input := senderRegistration(otherAddr)
		input["email"] = email
		w := env.request(http.MethodPost, "/api/auth/register/sender", input)
		assert.Equal(t, http.StatusBadRequest, w.Code, email)
		assert.Equal(t, "Invalid email address", decode(t, w)["message"], email)
	}

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDriverCapacity(t *testing.T) {
	env := setupEnv(t)
	input := map[string]interface{}{
		"walletAddress": driverAddr,
		"name":          "Ravi",
		"phone":         "9999",
		"vehicleType":   "Van",
		"vehicleNumber": "MH12AB1234",
		"capacity":      "0",
		"licenseNumber": "DL-1",
	}

	w := env.request(http.MethodPost, "/api/auth/register/driver", input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Capacity must be a positive number", decode(t, w)["message"])

	input["capacity"] = "250"
	w = env.request(http.MethodPost, "/api/auth/register/driver", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	profile := decode(t, w)["data"].(map[string]interface{})["profileData"].(map[string]interface{})
	assert.Equal(t, 250.0, profile["capacity"])
}

func TestCheckUserAndProfile(t *testing.T) {
	env := setupEnv(t)

	w := env.request(http.MethodGet, "/api/auth/user/"+senderAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["userExists"])

	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/api/auth/profile/"+senderAddr, nil).Code)

	require.Equal(t, http.StatusCreated, env.request(http.MethodPost, "/api/auth/register/sender", senderRegistration(senderAddr)).Code)

	w = env.request(http.MethodGet, "/api/auth/user/"+senderAddr, nil)
	body := decode(t, w)
	assert.Equal(t, true, body["userExists"])
	assert.Equal(t, "sender", body["role"])

	w = env.request(http.MethodGet, "/api/auth/profile/"+senderAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["data"].(map[string]interface{})["profileData"].(map[string]interface{})
	assert.Equal(t, "Kothrud", profile["preferredPickupZone"])
}

func TestUpsertUserUpdatesSuppliedFields(t *testing.T) {
	env := setupEnv(t)

	w := env.request(http.MethodPost, "/api/users", map[string]string{
		"walletAddress": driverAddr,
		"name":          "Ravi",
		"defaultRole":   "driver",
		"vehicleNumber": "MH12",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(http.MethodPost, "/api/users", map[string]string{
		"walletAddress": driverAddr,
		"name":          "Ravi Kumar",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(http.MethodGet, "/api/users/"+driverAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Ravi Kumar", body["name"])
	assert.Equal(t, "driver", body["defaultRole"])
	assert.Equal(t, "MH12", body["vehicleNumber"])

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.Equal(t, http.StatusBadRequest, env.request(http.MethodPost, "/api/users", map[string]string{"walletAddress": driverAddr, "defaultRole": "admin"}).Code)
	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/api/users/"+otherAddr, nil).Code)
}

func TestWalletLogin(t *testing.T) {
	env := setupEnv(t)

	w := env.request(http.MethodGet, "/api/auth/nonce/"+senderAddr, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	mr := miniredis.RunT(t)
	require.NoError(t, services.InitRedis("redis://"+mr.Addr()))
	t.Cleanup(func() {
		services.RedisClient.Close()
		services.RedisClient = nil
	})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	w = env.request(http.MethodGet, "/api/auth/nonce/"+wallet, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	nonce := body["nonce"].(string)
	assert.Equal(t, utils.LoginMessage(nonce), body["message"])

	sig, err := crypto.Sign(accounts.TextHash([]byte(utils.LoginMessage(nonce))), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	w = env.request(http.MethodPost, "/api/auth/verify", map[string]string{
		"walletAddress": wallet,
		"signature":     hexutil.Encode(sig),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, false, body["userExists"])
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// nonces are single use
	w = env.request(http.MethodPost, "/api/auth/verify", map[string]string{
		"walletAddress": wallet,
		"signature":     hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the token binds the caller to its wallet
	seedParcel(t, env.db, func(p *models.Parcel) { p.DeliveryID = strPtr("90") })
	w = env.request(http.MethodPost, "/api/parcels/90/accept",
		map[string]string{"driverAddress": driverAddr},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(http.MethodPost, "/api/parcels/90/accept",
		map[string]string{},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, wallet, decode(t, w)["driverAddress"])

	w = env.request(http.MethodGet, "/api/parcels/90", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyLoginRejectsWrongSigner(t *testing.T) {
	env := setupEnv(t)
	mr := miniredis.RunT(t)
	require.NoError(t, services.InitRedis("redis://"+mr.Addr()))
	t.Cleanup(func() {
		services.RedisClient.Close()
		services.RedisClient = nil
	})

	w := env.request(http.MethodGet, "/api/auth/nonce/"+senderAddr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nonce := decode(t, w)["nonce"].(string)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(utils.LoginMessage(nonce))), key)
	require.NoError(t, err)

	w = env.request(http.MethodPost, "/api/auth/verify", map[string]string{
		"walletAddress": senderAddr,
		"signature":     hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid signature", decode(t, w)["message"])
}

func TestVerifyLoginWithoutSecret(t *testing.T) {
	env := setupEnv(t, withConfig(func(cfg *config.Config) { cfg.JWTSecret = "" }))
	mr := miniredis.RunT(t)
	require.NoError(t, services.InitRedis("redis://"+mr.Addr()))
	t.Cleanup(func() {
		services.RedisClient.Close()
		services.RedisClient = nil
	})

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	w := env.request(http.MethodGet, "/api/auth/nonce/"+wallet, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	nonce := decode(t, w)["nonce"].(string)
	sig, err := crypto.Sign(accounts.TextHash([]byte(utils.LoginMessage(nonce))), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	w = env.request(http.MethodPost, "/api/auth/verify", map[string]string{
		"walletAddress": wallet,
		"signature":     hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// a token signed with the empty key does not bind the caller
	forged, err := utils.GenerateToken(&models.User{WalletAddress: wallet, Role: models.UserRoleDriver}, "")
	require.NoError(t, err)
	seedParcel(t, env.db, func(p *models.Parcel) { p.DeliveryID = strPtr("91") })
	w = env.request(http.MethodPost, "/api/parcels/91/accept",
		map[string]string{},
		"Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestRequireWalletAuth(t *testing.T) {
	env := setupEnv(t, withConfig(func(cfg *config.Config) { cfg.RequireWalletAuth = true }))

	w := env.request(http.MethodPost, "/api/parcels/store", storeBody("1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(&models.User{WalletAddress: senderAddr, Role: models.UserRoleSender}, testSecret)
	require.NoError(t, err)
	w = env.request(http.MethodPost, "/api/parcels/store", storeBody("1"), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// reads stay public
	assert.Equal(t, http.StatusOK, env.request(http.MethodGet, "/api/parcels/1", nil).Code)
}
