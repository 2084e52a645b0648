/*
Package core implements the sigma coin state keeping node functionality.
It's built around the Blockchain structure that maintains the active chain
of blocks together with the coin registry derived from it.

# Blocks

Blocks are connected one by one with AddBlock and reverted with DisconnectTip.
Every sigma transaction of a connected block is validated against the
registry first, a single invalid transaction rejects the whole block and
leaves the state untouched.

# Mempool

PoolTx admits unconfirmed transactions claiming their serials, at most one
transaction (confirmed or not) can claim any given serial. Pool contents are
revalidated after every chain change and stale transactions are dropped
releasing their serials.

# Persistence

Blocks and the chain index are kept in the storage.Store given to
NewBlockchain. The registry is snapshotted on Close and restored on the
next start if it matches the stored chain tip, otherwise it's rebuilt by
replaying the stored chain.
*/
package core
