package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"hashvault/escrow/internal/services"
	"hashvault/escrow/internal/stores"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using environment")
	}

	dataDir := envOr("DATA_DIR", "./data")
	listenAddr := envOr("LISTEN_ADDR", ":8000")
	rpcURL := os.Getenv("RPC_URL")
	hotWalletAddr := os.Getenv("ESCROW_WALLET_ADDRESS")
	hotWalletPrivKey := os.Getenv("ESCROW_WALLET_PRIVATE_KEY")
	keystorePassphrase := os.Getenv("KEYSTORE_PASSPHRASE")
	dryRun := os.Getenv("DRY_RUN") == "true"

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		log.Fatal().Err(err).Msg("failed to create data dir")
	}

	db, err := stores.Open(filepath.Join(dataDir, "escrow.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open escrow database")
	}
	defer db.Close()

	deposits := stores.NewDepositStore(db)
	addressed := stores.NewAddressedDepositStore(db)
	log.Info().Str("dir", dataDir).Msg("initialized stores")

	var gateway services.TransferGateway
	if dryRun {
		gateway = services.NewNoopGateway(log)
		log.Info().Msg("dry-run mode, transfers are logged only")
	} else {
		client, err := ethclient.Dial(rpcURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to chain rpc")
		}
		log.Info().Str("url", rpcURL).Msg("connected to chain rpc")

		ks, err := stores.NewLocalKeyStore(keystorePassphrase, filepath.Join(dataDir, "keystore"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize key store")
		}
		if hotWalletPrivKey != "" {
			privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hotWalletPrivKey, "0x"))
			if err != nil {
				log.Fatal().Err(err).Msg("failed to parse escrow wallet private key")
			}
			if _, err := ks.ImportECDSA(privateKey, keystorePassphrase); err != nil && !strings.Contains(err.Error(), "already") {
				log.Fatal().Err(err).Msg("failed to import escrow wallet key")
			}
		}
		gateway = services.NewEthTransferGateway(client, ks, common.HexToAddress(hotWalletAddr))
	}

	escrow := services.NewEscrowService(db, deposits, addressed, gateway, services.WallClock{}, services.NewLogSink(log))
	api := services.NewApiService(escrow, listenAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", listenAddr).Msg("api listening")
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if err := api.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("api shutdown failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
