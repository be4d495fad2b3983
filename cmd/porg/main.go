package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	bcsolana "github.com/porgdao/porg/internal/blockchain/solana"
	"github.com/porgdao/porg/internal/bridge"
	"github.com/porgdao/porg/internal/config"
	"github.com/porgdao/porg/internal/eventlistener"
	"github.com/porgdao/porg/internal/liquidator"
	"github.com/porgdao/porg/internal/logger"
	"github.com/porgdao/porg/internal/oracle"
	"github.com/porgdao/porg/internal/porg"
	"github.com/porgdao/porg/internal/storage"
	"github.com/porgdao/porg/internal/storage/postgres"
	"github.com/porgdao/porg/internal/wallet"
)

const usage = `Usage: porg <command> [flags]

Commands:
  init         create and initialize the program state account
  update-fee   change the liquidation fee (authority only)
  state        print the current program state
  liquidate    batch-liquidate wallet token accounts into a target mint
  bridge       send tokens to another chain through Wormhole
  watch        stream program state changes over websocket
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "porg: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "init":
		err = app.runInit(ctx, args)
	case "update-fee":
		err = app.runUpdateFee(ctx, args)
	case "state":
		err = app.runState(ctx, args)
	case "liquidate":
		err = app.runLiquidate(ctx, args)
	case "bridge":
		err = app.runBridge(ctx, args)
	case "watch":
		err = app.runWatch(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		app.log.Error("command failed", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	log    *logger.Logger
	client *bcsolana.Client
	wallet *wallet.Wallet
	store  storage.Storage // nil unless postgres_url is set
}

func newApp() (*app, error) {
	configPath := os.Getenv("PORG_CONFIG")
	if configPath == "" {
		configPath = "configs/config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := bcsolana.NewClient(cfg.RPCList, cfg.RPCRateLimit, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("init rpc client: %w", err)
	}

	w, err := wallet.New(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	log.Info("wallet loaded", zap.String("address", w.String()))

	var store storage.Storage
	if cfg.PostgresURL != "" {
		store, err = postgres.NewStorage(cfg.PostgresURL, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		if err := store.RunMigrations(); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &app{cfg: cfg, log: log, client: client, wallet: w, store: store}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// runInit creates a fresh state account keypair and submits initialize.
// The new account co-signs its own creation; its address is printed so it
// can be recorded as state_account in the config.
func (a *app) runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	feeAccount := fs.String("fee-account", a.cfg.FeeAccount, "fee destination token account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fee, err := solana.PublicKeyFromBase58(*feeAccount)
	if err != nil {
		return fmt.Errorf("invalid fee account: %w", err)
	}

	stateKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("generate state keypair: %w", err)
	}

	ix := porg.NewInitializeInstruction(porg.InitializeAccounts{
		State:      stateKey.PublicKey(),
		Authority:  a.wallet.PublicKey,
		FeeAccount: fee,
	})

	sig, err := bcsolana.SubmitWithRetry(ctx, a.client, a.wallet, []solana.Instruction{ix},
		bcsolana.WithExtraSigner(stateKey))
	if err != nil {
		return err
	}

	a.log.Info("state initialized",
		zap.String("state_account", stateKey.PublicKey().String()),
		zap.String("signature", sig.String()))
	fmt.Printf("state account: %s\nsignature: %s\n", stateKey.PublicKey(), sig)
	return nil
}

func (a *app) runUpdateFee(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update-fee", flag.ExitOnError)
	bps := fs.Uint("bps", 0, "new fee in basis points (max 500)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bps > 0xffff {
		return fmt.Errorf("fee out of range: %d", *bps)
	}

	state, err := a.stateAccount()
	if err != nil {
		return err
	}

	ix := porg.NewUpdateFeeInstruction(porg.UpdateFeeAccounts{
		State:     state,
		Authority: a.wallet.PublicKey,
	}, uint16(*bps))

	sig, err := bcsolana.SubmitWithRetry(ctx, a.client, a.wallet, []solana.Instruction{ix})
	if err != nil {
		return err
	}

	a.log.Info("fee updated",
		zap.Uint("fee_basis_points", *bps),
		zap.String("signature", sig.String()))
	fmt.Printf("signature: %s\n", sig)
	return nil
}

func (a *app) runState(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	state, err := a.stateAccount()
	if err != nil {
		return err
	}
	data, err := a.client.GetAccountData(ctx, state)
	if err != nil {
		return fmt.Errorf("fetch state account: %w", err)
	}

	var decoded porg.StateAccount
	if err := decoded.Unmarshal(data); err != nil {
		return fmt.Errorf("decode state account: %w", err)
	}
	fmt.Println(decoded.String())
	return nil
}

// routeFile is the JSON shape of -routes: candidate token account address
// to its swap leg, data base64-encoded.
type routeFile map[string]struct {
	Data     string   `json:"data"`
	Accounts []string `json:"accounts"`
}

func (a *app) runLiquidate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("liquidate", flag.ExitOnError)
	targetMint := fs.String("target-mint", "", "mint to liquidate into")
	routesPath := fs.String("routes", "", "JSON file mapping token accounts to swap routes")
	minOutput := fs.Uint64("min-output", 0, "minimum target balance after fee, in base units")
	includeDust := fs.Bool("include-dust", a.cfg.IncludeDust, "liquidate accounts below the value threshold too")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *targetMint == "" || *routesPath == "" {
		return fmt.Errorf("liquidate requires -target-mint and -routes")
	}

	mint, err := solana.PublicKeyFromBase58(*targetMint)
	if err != nil {
		return fmt.Errorf("invalid target mint: %w", err)
	}
	routes, err := loadRoutes(*routesPath)
	if err != nil {
		return err
	}

	state, err := a.stateAccount()
	if err != nil {
		return err
	}
	feeAccount, err := solana.PublicKeyFromBase58(a.cfg.FeeAccount)
	if err != nil {
		return fmt.Errorf("invalid fee_account in config: %w", err)
	}

	svc := liquidator.NewService(liquidator.Options{
		Client:       a.client,
		Wallet:       a.wallet,
		Valuer:       oracle.NewStatic(oracle.DefaultValueCents),
		Store:        a.store,
		StateAccount: state,
		FeeAccount:   feeAccount,
		Logger:       a.log.Logger,
	})

	result, err := svc.Liquidate(ctx, liquidator.Request{
		TargetMint:       mint,
		IncludeDust:      *includeDust,
		MinTokenValueUSD: a.cfg.MinTokenValueUSD,
		MinOutputAmount:  *minOutput,
		Routes:           routes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("signature: %s\nswaps: %d\nskipped dust: %d\n",
		result.Signature, result.SwapsExecuted, result.SkippedDust)
	return nil
}

func (a *app) runBridge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bridge", flag.ExitOnError)
	sourceMint := fs.String("source-mint", "", "mint of the tokens to bridge")
	amount := fs.Uint64("amount", 0, "amount in base units")
	chain := fs.Uint("chain", 0, "Wormhole chain id of the destination")
	recipient := fs.String("recipient", "", "32-byte recipient address, hex")
	nonce := fs.Uint64("nonce", 0, "transfer nonce")
	custody := fs.String("custody", "", "bridge custody token account")
	wormholeConfig := fs.String("wh-config", "", "wormhole config account")
	wormholeMessage := fs.String("wh-message", "", "wormhole message account")
	wormholeEmitter := fs.String("wh-emitter", "", "wormhole emitter account")
	wormholeSequence := fs.String("wh-sequence", "", "wormhole sequence account")
	wormholeFees := fs.String("wh-fee-collector", "", "wormhole fee collector account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sourceMint == "" || *amount == 0 || *recipient == "" {
		return fmt.Errorf("bridge requires -source-mint, -amount and -recipient")
	}
	if *chain > 0xffff {
		return fmt.Errorf("chain id out of range: %d", *chain)
	}

	mint, err := solana.PublicKeyFromBase58(*sourceMint)
	if err != nil {
		return fmt.Errorf("invalid source mint: %w", err)
	}
	recipientBytes, err := hex.DecodeString(*recipient)
	if err != nil || len(recipientBytes) != 32 {
		return fmt.Errorf("recipient must be 32 bytes of hex")
	}

	accounts := bridge.Accounts{}
	for _, field := range []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"custody", *custody, &accounts.Custody},
		{"wh-config", *wormholeConfig, &accounts.Config},
		{"wh-message", *wormholeMessage, &accounts.Message},
		{"wh-emitter", *wormholeEmitter, &accounts.Emitter},
		{"wh-sequence", *wormholeSequence, &accounts.Sequence},
		{"wh-fee-collector", *wormholeFees, &accounts.FeeCollector},
	} {
		key, err := solana.PublicKeyFromBase58(field.raw)
		if err != nil {
			return fmt.Errorf("invalid -%s: %w", field.name, err)
		}
		*field.dst = key
	}

	svc := bridge.NewService(a.client, a.wallet, a.store, accounts, a.log.Logger)

	var rcpt [32]byte
	copy(rcpt[:], recipientBytes)
	sig, err := svc.Bridge(ctx, bridge.Request{
		SourceMint:  mint,
		Amount:      *amount,
		TargetChain: uint16(*chain),
		Recipient:   rcpt,
		Nonce:       *nonce,
	})
	if err != nil {
		return err
	}
	fmt.Printf("signature: %s\n", sig)
	return nil
}

// runWatch streams state account changes until interrupted.
func (a *app) runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	state, err := a.stateAccount()
	if err != nil {
		return err
	}

	listener := eventlistener.New(a.cfg.WebSocketURL, a.log.Logger)
	if err := listener.Start(ctx); err != nil {
		return err
	}
	defer listener.Close()

	err = listener.SubscribeAccount(state, func(account solana.PublicKey, data []byte, slot uint64) {
		var decoded porg.StateAccount
		if err := decoded.Unmarshal(data); err != nil {
			a.log.Warn("state update not decodable",
				zap.Uint64("slot", slot), zap.Error(err))
			return
		}
		a.log.Info("state changed",
			zap.Uint64("slot", slot),
			zap.String("authority", decoded.Authority.String()),
			zap.Uint16("fee_basis_points", decoded.FeeBasisPoints),
			zap.String("fee_account", decoded.FeeAccount.String()))
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (a *app) stateAccount() (solana.PublicKey, error) {
	if a.cfg.StateAccount == "" {
		return solana.PublicKey{}, fmt.Errorf("state_account not set in config")
	}
	key, err := solana.PublicKeyFromBase58(a.cfg.StateAccount)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid state_account in config: %w", err)
	}
	return key, nil
}

func loadRoutes(path string) (map[solana.PublicKey]liquidator.Route, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	var file routeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse routes file: %w", err)
	}

	routes := make(map[solana.PublicKey]liquidator.Route, len(file))
	for addr, entry := range file {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid route key %s: %w", addr, err)
		}
		data, err := base64.StdEncoding.DecodeString(entry.Data)
		if err != nil {
			return nil, fmt.Errorf("route %s: bad data encoding: %w", addr, err)
		}
		accounts := make([]solana.PublicKey, 0, len(entry.Accounts))
		for _, acc := range entry.Accounts {
			accKey, err := solana.PublicKeyFromBase58(acc)
			if err != nil {
				return nil, fmt.Errorf("route %s: invalid account %s: %w", addr, acc, err)
			}
			accounts = append(accounts, accKey)
		}
		routes[key] = liquidator.Route{Data: data, Accounts: accounts}
	}
	return routes, nil
}
