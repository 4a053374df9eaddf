// Package libpq is the native client layer underneath pgbind.
/*
libpq models the synchronous, text-protocol client library that pgbind binds to. It operates at the level of the C
library libpq: a connection handle that is either OK or BAD, and result handles that own the raw bytes of every cell.

Connection Handles

A Driver opens a Conn from a connection string. Opening never fails outright; a connection that could not be
established is returned with Status ConnectionBad and an ErrorMessage. The caller owns the Conn and must call Finish
exactly once. The default Driver is built on github.com/jackc/pgx/v5/pgconn.

Result Handles

Every execution returns a non-nil *Result. Failures are reported through Status and ErrorMessage rather than Go
errors, just as libpq reports them through PQresultStatus. A Result stores all cell data in one contiguous buffer in
which every value is followed by a zero byte. The buffer is released by Clear; nothing read from a Result may be used
after it is cleared.

Parameters

Parameters are always sent as text. A nil *string is sent as SQL NULL.
*/
package libpq
