package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/araviel-io/onesol-swap-engine/internal/compose"
	"github.com/araviel-io/onesol-swap-engine/internal/config"
	"github.com/araviel-io/onesol-swap-engine/internal/engine"
	"github.com/araviel-io/onesol-swap-engine/internal/venue"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "quote | compose | swap")
	pool := flag.String("pool", "", "pool account address (base58)")
	poolKind := flag.String("kind", "constant-product", "constant-product | stable-swap")
	poolProgram := flag.String("pool-program", "", "pool program id (base58)")
	inMint := flag.String("in", "", "input mint (base58)")
	outMint := flag.String("out", "", "output mint (base58)")
	amountIn := flag.Uint64("amount", 0, "input amount in base units")
	expectedOut := flag.Uint64("expected-out", 0, "expected output in base units (0 = estimate)")
	slippage := flag.Float64("slippage", 0, "slippage tolerance (e.g. 0.01 = 1%)")
	owner := flag.String("owner", "", "owner address for compose mode (defaults to wallet)")
	flag.Parse()

	if *pool == "" || *inMint == "" || *outMint == "" || *amountIn == 0 {
		fmt.Println("missing required flags: -pool -in -out -amount")
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(1)
	}

	eng, err := engine.New(ctx, cfg, logger)
	if err != nil {
		fmt.Println("failed to init engine:", err)
		os.Exit(1)
	}
	defer eng.Close()

	poolAddr := mustKey(*pool, "pool")
	inputMint := mustKey(*inMint, "in")
	outputMint := mustKey(*outMint, "out")

	programID := eng.Protocol().ProgramID
	if *poolProgram != "" {
		programID = mustKey(*poolProgram, "pool-program")
	}

	kind := venue.KindConstantProduct
	if *poolKind == "stable-swap" {
		kind = venue.KindStableSwap
	}

	switch *mode {
	case "quote":
		q, err := eng.Quote(ctx, engine.QuoteRequest{
			Kind:          kind,
			PoolAddress:   poolAddr,
			PoolProgramID: programID,
			InputMint:     inputMint,
			OutputMint:    outputMint,
			AmountIn:      *amountIn,
			AmountOut:     *expectedOut,
			Slippage:      *slippage,
		})
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		if q == nil {
			fmt.Println("no quote available")
			return
		}
		printJSON(q)

	case "compose", "swap":
		var ownerKey solana.PublicKey
		if *owner != "" {
			ownerKey = mustKey(*owner, "owner")
		} else if eng.Wallet() != nil {
			ownerKey = eng.Wallet().PublicKey()
		} else {
			fmt.Println("compose needs -owner or a configured wallet")
			os.Exit(2)
		}

		route := []compose.Hop{{
			Kind:        kind,
			Address:     poolAddr,
			ProgramID:   programID,
			InputMint:   inputMint,
			OutputMint:  outputMint,
			AmountIn:    *amountIn,
			ExpectedOut: *expectedOut,
		}}

		batch, err := eng.Compose(ctx, engine.ComposeRequest{
			Owner:    ownerKey,
			Route:    route,
			Slippage: *slippage,
		})
		if err != nil {
			fmt.Println("compose failed:", err)
			os.Exit(1)
		}

		fmt.Printf("composed %d instructions, %d signers\n",
			len(batch.Instructions), len(batch.SignerKeys()))

		if *mode == "swap" {
			sig, err := eng.Submit(ctx, batch, route)
			if err != nil {
				fmt.Println("submit failed:", err)
				os.Exit(1)
			}
			fmt.Println("submitted:", sig)
		}

	default:
		fmt.Println("unknown mode:", *mode)
		os.Exit(2)
	}
}

func mustKey(s, name string) solana.PublicKey {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		fmt.Printf("invalid -%s: %v\n", name, err)
		os.Exit(2)
	}
	return key
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(out))
}
