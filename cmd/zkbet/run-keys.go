package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
)

type keyResult struct {
	Scheme     string `json:"scheme"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
}

// runKeygen creates a key for the configured signature scheme.
func runKeygen(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	k, err := crypto.GenerateKey(cfg.Scheme)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, keyResult{
		Scheme:     cfg.Scheme,
		PrivateKey: fmt.Sprintf("%x", k.Bytes()),
		PublicKey:  k.Public().Hex(),
		Address:    k.Public().Address(),
	})
}

// signerFromFlag loads --key for the configured signature scheme.
func signerFromFlag(c *cli.Context) (crypto.PrivateKey, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	k, err := crypto.PrivateKeyFromHex(cfg.Scheme, c.String("key"))
	if err != nil {
		return nil, fmt.Errorf("--key: %w", err)
	}
	return k, nil
}

// runInitSig signs the initialization message for the configured oracle
// key and height. It does not touch the store.
func runInitSig(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	k, err := signerFromFlag(c)
	if err != nil {
		return err
	}
	cc, err := cfg.ContractConfig()
	if err != nil {
		return err
	}
	if !k.Public().Equal(cc.AuthorityKey) {
		return fmt.Errorf("key %s is not the configured authority", k.Public())
	}
	sig, err := crypto.Sign(k, crypto.DomainDeploy, contract.InitMessage(cc.OracleKey, cc.Height))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, sig.Hex())
	return err
}
