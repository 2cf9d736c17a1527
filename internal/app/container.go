// Package app provides the dependency injection container for assembling
// the sovereign security core's components.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/clenoble/sovereign-sub001/internal/config"
	cryptoDomain "github.com/clenoble/sovereign-sub001/internal/crypto/domain"
	cryptoService "github.com/clenoble/sovereign-sub001/internal/crypto/service"
	"github.com/clenoble/sovereign-sub001/internal/events"
	"github.com/clenoble/sovereign-sub001/internal/gate"
	sovereignHTTP "github.com/clenoble/sovereign-sub001/internal/http"
	"github.com/clenoble/sovereign-sub001/internal/keydb"
	"github.com/clenoble/sovereign-sub001/internal/metrics"
	"github.com/clenoble/sovereign-sub001/internal/p2p"
	"github.com/clenoble/sovereign-sub001/internal/recovery"
	"github.com/clenoble/sovereign-sub001/internal/sessionlog"
)

// Container holds all application dependencies and provides methods to
// access them. It follows the lazy initialization pattern - components are
// created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger

	// Crypto services
	aeadManager cryptoService.AEADManager
	keyManager  cryptoService.KeyManager
	kmsService  cryptoService.KMSService

	// Session state, populated once the identity is unlocked via Unlock.
	masterKeyHolder *cryptoDomain.MasterKeyHolder
	deviceKey       *cryptoDomain.DeviceKey
	kek             *cryptoDomain.Kek
	keyDB           *keydb.KeyDatabase
	sessionLog      *sessionlog.Log
	guardianReg     *recovery.GuardianRegistry
	pairingMgr      *p2p.PairingManager
	trustTracker    *gate.TrustTracker
	canaryDetector  *gate.CanaryDetector

	// persona records which identity Unlock authenticated into (primary or
	// duress); activeDataDir is that persona's data directory, which
	// differs from config.DataDir only when persona is PersonaDuress.
	persona       events.PersonaKind
	activeDataDir string

	// Observability, lazily initialized since metrics export can fail.
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Initialization flags and mutex for thread-safety
	mu               sync.Mutex
	loggerInit       sync.Once
	aeadManagerInit  sync.Once
	keyManagerInit   sync.Once
	kmsServiceInit   sync.Once
	trustTrackerInit sync.Once
	metricsInit      sync.Once
	initErrors       map[string]error
}

// NewContainer creates a new dependency injection container with the
// provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance. It creates a new logger on
// first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key hierarchy service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager())
	})
	return c.keyManager
}

// KMSService returns the KMS service used to seal the MasterKey's companion
// blob, when kms_provider/kms_key_uri are configured.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// TrustTracker returns the per-action-name auto-approval tracker. It is
// shared for the life of the process, not reset across unlocks.
func (c *Container) TrustTracker() *gate.TrustTracker {
	c.trustTrackerInit.Do(func() {
		c.trustTracker = gate.NewTrustTracker(c.config.GateTrustThreshold)
	})
	return c.trustTracker
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider,
// namespaced "sovereign". Initialized lazily on first access; failures are
// cached so every caller observes the same error.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsInit.Do(func() {
		provider, err := metrics.NewProvider("sovereign")
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), "sovereign")
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business-operation metrics recorder backed by
// MetricsProvider. Components record operation counts and durations
// through this interface rather than holding an OpenTelemetry meter
// directly.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if _, err := c.MetricsProvider(); err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// IsLocked reports whether the identity currently holds no MasterKey, i.e.
// whether Unlock has not yet been called or Lock has since been called.
func (c *Container) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masterKeyHolder == nil
}

// HTTPServer returns the local health/ready/metrics status server, bound to
// addr (metrics are local-operator tooling, not part of the sync protocol,
// so this never shares a listener with internal/p2p).
func (c *Container) HTTPServer(addr string) (*sovereignHTTP.Server, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("init metrics provider: %w", err)
	}
	return sovereignHTTP.NewServer(addr, c.Logger(), provider, c.IsLocked), nil
}

// Unlock authenticates passphrase against the primary identity and, if a
// duress persona is configured (DuressDataDir set and a kek.wrapped present
// under it), the duress identity as well, derived with DuressMasterKeySalt,
// via gate.Authenticator. On the very
// first unlock of either identity — no kek.wrapped exists yet for either
// persona — it falls back to deriving the primary MasterKey directly and
// letting loadOrCreateKek create the identity's KEK, matching the
// Authenticator's own precondition that it has a WrappedKek to test
// against.
//
// A duress match swaps in that persona's DataDir for the rest of the
// session: the KeyDatabase, session log, guardian registry, and pairing
// manager all open against the decoy's document root instead of the
// primary one. No error message distinguishes the two outcomes to the
// caller; a duress match takes longer, since the primary passphrase is
// always tried first.
func (c *Container) Unlock(ctx context.Context, passphrase []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	km := c.KeyManager()

	dataDir := c.config.DataDir
	persona := events.PersonaPrimary

	primaryWrapped, err := peekWrappedKek(c.config.DataDir)
	if err != nil {
		return fmt.Errorf("inspect primary kek: %w", err)
	}
	var duressWrapped *cryptoDomain.WrappedKek
	if c.config.DuressDataDir != "" {
		duressWrapped, err = peekWrappedKek(c.config.DuressDataDir)
		if err != nil {
			return fmt.Errorf("inspect duress kek: %w", err)
		}
	}

	var master *cryptoDomain.MasterKey
	var kek *cryptoDomain.Kek

	if primaryWrapped != nil || duressWrapped != nil {
		auth := gate.NewAuthenticator(km, c.config.DeviceID, c.config.MasterKeySalt, primaryWrapped)
		if duressWrapped != nil {
			auth.ConfigureDuress(c.config.DuressMasterKeySalt, duressWrapped)
		}
		matchedPersona, matchedMaster, matchedKek, err := auth.Unlock(passphrase)
		if err != nil {
			return err
		}
		persona = matchedPersona
		master = matchedMaster
		kek = matchedKek
		if persona == events.PersonaDuress {
			dataDir = c.config.DuressDataDir
		}
	} else {
		master, err = km.MasterFromPassphrase(passphrase, c.config.MasterKeySalt)
		if err != nil {
			return fmt.Errorf("derive master key: %w", err)
		}
	}

	c.masterKeyHolder = cryptoDomain.NewMasterKeyHolder(master)
	c.persona = persona
	c.activeDataDir = dataDir

	deviceKey, err := km.DeviceFromMaster(master, c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("derive device key: %w", err)
	}
	c.deviceKey = deviceKey

	if kek == nil {
		kek, _, err = loadOrCreateKek(dataDir, deviceKey, km)
		if err != nil {
			return fmt.Errorf("load kek: %w", err)
		}
	}
	c.kek = kek

	keyDB, err := keydb.Open(dataDir, deviceKey, km, c.AEADManager())
	if err != nil {
		return fmt.Errorf("open key database: %w", err)
	}
	c.keyDB = keyDB

	log, err := sessionlog.Open(dataDir, deviceKey, c.AEADManager())
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	c.sessionLog = log

	guardianReg, err := recovery.OpenGuardianRegistry(dataDir, deviceKey, c.AEADManager())
	if err != nil {
		return fmt.Errorf("open guardian registry: %w", err)
	}
	c.guardianReg = guardianReg

	pairingMgr, err := p2p.OpenPairingManager(dataDir, deviceKey, c.AEADManager())
	if err != nil {
		return fmt.Errorf("open pairing manager: %w", err)
	}
	c.pairingMgr = pairingMgr

	c.canaryDetector = c.loadCanaryDetector(master, dataDir)

	return nil
}

// loadCanaryDetector derives the canary-phrase sealing key from master and
// decrypts canary.enc under dataDir, if one has been enrolled. Returns nil
// (detection disabled) rather than an error when no canary phrase exists
// yet or the key cannot be derived — an un-enrolled canary is a normal
// state, not a failure to unlock.
func (c *Container) loadCanaryDetector(master *cryptoDomain.MasterKey, dataDir string) *gate.CanaryDetector {
	canaryKey, err := c.KeyManager().CanaryKeyFromMaster(master)
	if err != nil {
		return nil
	}
	store, err := gate.LoadCanaryStore(dataDir)
	if err != nil {
		return nil
	}
	phrase, err := store.Decrypt(canaryKey, c.AEADManager())
	if err != nil {
		return nil
	}
	return gate.NewCanaryDetector(phrase)
}

// MasterKeyHolder returns the unlocked MasterKey holder. Callers must call
// Unlock first; returns nil otherwise.
func (c *Container) MasterKeyHolder() *cryptoDomain.MasterKeyHolder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masterKeyHolder
}

// DeviceKey returns this device's derived DeviceKey. Callers must call
// Unlock first; returns nil otherwise.
func (c *Container) DeviceKey() *cryptoDomain.DeviceKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceKey
}

// Kek returns this identity's unwrapped Key-Encryption Key. Callers must
// call Unlock first; returns nil otherwise.
func (c *Container) Kek() *cryptoDomain.Kek {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kek
}

// RotateKek generates a fresh KEK, persists its wrapped form under the
// current DeviceKey, and swaps it in as the active KEK. Existing
// DocumentKeys wrapped under the previous KEK remain readable only via
// their stored epoch entries in the key database; callers that want the
// new KEK protecting a document's key must call KeyDatabase().Rotate for
// that document afterward.
func (c *Container) RotateKek() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deviceKey == nil {
		return fmt.Errorf("rotate kek: container is locked")
	}

	newKek, err := cryptoDomain.GenerateKek()
	if err != nil {
		return err
	}
	if err := saveWrappedKek(c.activeDataDir, newKek, c.deviceKey, c.KeyManager()); err != nil {
		return fmt.Errorf("persist rotated kek: %w", err)
	}

	if c.kek != nil {
		c.kek.Close()
	}
	c.kek = newKek
	return nil
}

// KeyDatabase returns the opened key database. Callers must call Unlock
// first; returns nil otherwise.
func (c *Container) KeyDatabase() *keydb.KeyDatabase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyDB
}

// SessionLog returns the opened session log. Callers must call Unlock
// first; returns nil otherwise.
func (c *Container) SessionLog() *sessionlog.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLog
}

// GuardianRegistry returns the opened guardian registry. Callers must call
// Unlock first; returns nil otherwise.
func (c *Container) GuardianRegistry() *recovery.GuardianRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guardianReg
}

// PairingManager returns the opened pairing manager. Callers must call
// Unlock first; returns nil otherwise.
func (c *Container) PairingManager() *p2p.PairingManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pairingMgr
}

// Persona reports which identity the most recent Unlock authenticated
// into. Meaningless before the first Unlock.
func (c *Container) Persona() events.PersonaKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}

// CanaryDetector returns the canary-phrase detector loaded from this
// persona's canary.enc at Unlock, or nil if no canary phrase has been
// enrolled for this identity.
func (c *Container) CanaryDetector() *gate.CanaryDetector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canaryDetector
}

// EnrollCanary seals phrase under a key derived from the currently
// unlocked MasterKey and persists it to this persona's canary.enc,
// replacing any previously enrolled phrase and arming CanaryDetector for
// the rest of the session.
func (c *Container) EnrollCanary(phrase string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.masterKeyHolder == nil {
		return fmt.Errorf("enroll canary: container is locked")
	}

	var store *gate.CanaryStore
	err := c.masterKeyHolder.Use(func(master *cryptoDomain.MasterKey) error {
		canaryKey, err := c.KeyManager().CanaryKeyFromMaster(master)
		if err != nil {
			return fmt.Errorf("derive canary key: %w", err)
		}
		store, err = gate.EncryptCanaryPhrase(phrase, canaryKey, c.AEADManager())
		return err
	})
	if err != nil {
		return fmt.Errorf("seal canary phrase: %w", err)
	}

	if err := gate.SaveCanaryStore(c.activeDataDir, store); err != nil {
		return fmt.Errorf("persist canary phrase: %w", err)
	}

	if c.canaryDetector != nil {
		c.canaryDetector.Close()
	}
	c.canaryDetector = gate.NewCanaryDetector(phrase)
	return nil
}

// EnrollDuress derives a fresh MasterKeySalt for a duress persona and
// creates its kek.wrapped under duressDataDir, without disturbing the
// caller's already-unlocked primary identity. The returned salt must be
// persisted as DuressMasterKeySalt (SOVEREIGN_DURESS_MASTER_KEY_SALT) for
// the duress persona to be reachable on future Unlock calls.
func (c *Container) EnrollDuress(duressPassphrase []byte, duressDataDir string) ([]byte, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate duress salt: %w", err)
	}

	km := c.KeyManager()
	master, err := km.MasterFromPassphrase(duressPassphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive duress master key: %w", err)
	}
	defer master.Close()

	deviceKey, err := km.DeviceFromMaster(master, c.config.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("derive duress device key: %w", err)
	}
	defer deviceKey.Close()

	kek, _, err := loadOrCreateKek(duressDataDir, deviceKey, km)
	if err != nil {
		return nil, fmt.Errorf("create duress kek: %w", err)
	}
	kek.Close()

	return salt, nil
}

// Lock zeros the MasterKey and DeviceKey and closes the key database and
// session log, returning the container to its pre-Unlock state.
func (c *Container) Lock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.masterKeyHolder != nil {
		c.masterKeyHolder.Close()
		c.masterKeyHolder = nil
	}
	if c.deviceKey != nil {
		c.deviceKey.Close()
		c.deviceKey = nil
	}
	if c.kek != nil {
		c.kek.Close()
		c.kek = nil
	}
	if c.canaryDetector != nil {
		c.canaryDetector.Close()
		c.canaryDetector = nil
	}
	c.keyDB = nil
	c.sessionLog = nil
	c.guardianReg = nil
	c.pairingMgr = nil
	c.persona = events.PersonaPrimary
	c.activeDataDir = ""
}

// Shutdown performs cleanup of all initialized resources. It should be
// called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.Lock()
	if c.metricsProvider != nil {
		return c.metricsProvider.Shutdown(ctx)
	}
	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
